// cmd/tools/registry-export/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"ghostwriter-workers/pkg/registry"

	"github.com/spf13/cobra"
)

const defaultPath = "configs/activity-registry.json"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "registry-export",
		Short:         "Export, validate and edit the ghostwriter activity registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newExportCmd(), newValidateCmd(), newUpdateCmd())
	return root
}

func newExportCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write the built-in activity registry as JSON",
		Example: "registry-export export --path configs/activity-registry.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Default()
			reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
			if err := registry.SaveRegistry(reg, path); err != nil {
				return fmt.Errorf("export registry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d activities to %s\n", len(reg.Activities), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", defaultPath, "path to write the registry to")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a registry file",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(path)
			if err == nil {
				err = reg.Validate()
			}
			if err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", defaultPath, "path to the registry file")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var path, id, field, value string
	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Update a field of one activity in a registry file",
		Example: "registry-export update --id rewrite-content --field retries --value 3",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := updateActivity(path, id, field, value); err != nil {
				return fmt.Errorf("update activity: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", defaultPath, "path to the registry file")
	cmd.Flags().StringVar(&id, "id", "", "activity ID to update")
	cmd.Flags().StringVar(&field, "field", "", "field to update (status, version, timeout, retries)")
	cmd.Flags().StringVar(&value, "value", "", "new value for the field")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func updateActivity(path, id, field, value string) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var activity *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			activity = &reg.Activities[i]
			break
		}
	}
	if activity == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		status, err := registry.ParseImplementationStatus(value)
		if err != nil {
			return err
		}
		activity.ImplementationStatus = status
	case "version":
		activity.Version = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		activity.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		activity.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return registry.SaveRegistry(reg, path)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nmxmxh/flowmesh/kernel/schema"
	"github.com/nmxmxh/flowmesh/kernel/schemastore"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Schema manifest validation and compatibility checks",
	}
	cmd.AddCommand(newSchemaValidateCmd())
	cmd.AddCommand(newSchemaCheckCompatCmd())
	return cmd
}

func newSchemaValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest.json> <props.json>",
		Short: "Validate a property document against a manifest's own schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			manifestRaw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			propsRaw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read properties: %w", err)
			}

			store := schemastore.New()
			if err := schemastore.SetSchemaDefinitionFromManifest(store, manifestRaw); err != nil {
				return fmt.Errorf("load manifest: %w", err)
			}

			props, ferr := value.FromJSON(propsRaw)
			if ferr != nil {
				return fmt.Errorf("parse properties: %w", ferr)
			}
			if ferr := store.AdjustProperties(props); ferr != nil {
				return fmt.Errorf("adjust: %w", ferr)
			}
			if ferr := store.ValidateProperties(props); ferr != nil {
				return fmt.Errorf("invalid: %w", ferr)
			}
			fmt.Println("ok")
			return nil
		},
	}
}

func newSchemaCheckCompatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-compat <source-manifest.json> <target-manifest.json>",
		Short: "Check that a source manifest's own schema is compatible with a target's",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			sourceRaw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read source manifest: %w", err)
			}
			targetRaw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read target manifest: %w", err)
			}

			sourceStore := schemastore.New()
			if err := schemastore.SetSchemaDefinitionFromManifest(sourceStore, sourceRaw); err != nil {
				return fmt.Errorf("load source manifest: %w", err)
			}
			targetStore := schemastore.New()
			if err := schemastore.SetSchemaDefinitionFromManifest(targetStore, targetRaw); err != nil {
				return fmt.Errorf("load target manifest: %w", err)
			}

			source := sourceStore.OwnSchema()
			target := targetStore.OwnSchema()
			if source == nil || target == nil {
				return fmt.Errorf("both manifests must declare a top-level \"property\" schema")
			}
			if ferr := schema.IsCompatible(source, target); ferr != nil {
				return fmt.Errorf("incompatible: %w", ferr)
			}
			fmt.Println("compatible")
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/persona"
	"github.com/qamaster/personaqa/internal/wizard"
	"github.com/spf13/cobra"
)

func newPersonasCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "Inspect and select personas from the catalog",
	}

	cmd.AddCommand(newPersonasListCommand(a))
	cmd.AddCommand(newPersonasSelectCommand(a))
	cmd.AddCommand(newPersonasPickCommand(a))

	return cmd
}

func newPersonasListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the personas of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.loadCatalog()
			if err != nil {
				return err
			}

			personas := catalog.List()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(personas)
			}

			printPersonas(cmd.OutOrStdout(), personas)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the listing as JSON")

	return cmd
}

func newPersonasSelectCommand(a *app) *cobra.Command {
	var (
		modeName string
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "select <count>",
		Short: "Print the persona ids a run would select",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[0], err)
			}

			mode, err := persona.ParseMode(firstNonEmpty(modeName, a.project.Defaults.SelectionMode))
			if err != nil {
				return err
			}

			catalog, err := a.loadCatalog()
			if err != nil {
				return err
			}

			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			ids, err := persona.Select(catalog, count, mode, rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}

			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", "", "Selection mode: random, sequential, diversified")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for random selection (0 = random)")

	return cmd
}

func newPersonasPickCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Interactively choose personas and print them for --persona-ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := a.loadCatalog()
			if err != nil {
				return err
			}

			ids, err := wizard.PickPersonas(cmd.InOrStdin(), cmd.ErrOrStderr(), catalog.List())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(ids, ","))
			return nil
		},
	}
}

func printPersonas(w io.Writer, personas []models.PersonaSummary) {
	headers := []string{"ID", "NOME", "PERSONALIDADE", "STRESS"}
	rows := make([][]string, 0, len(personas))
	for _, p := range personas {
		rows = append(rows, []string{p.ID, p.Name, p.Personality, p.StressLevel})
	}

	printTable(w, headers, rows)
	fmt.Fprintf(w, "\n%d persona(s)\n", len(personas))
}

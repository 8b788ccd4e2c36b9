package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/qamaster/personaqa/internal/models"
	"github.com/qamaster/personaqa/internal/persona"
	"github.com/qamaster/personaqa/internal/testscript"
	"github.com/spf13/cobra"
)

func newComposeCommand(a *app) *cobra.Command {
	var (
		personaID        string
		withCustomerData bool
		seed             int64
	)

	cmd := &cobra.Command{
		Use:   "compose <script>",
		Short: "Print the tester instructions built for a persona and a script",
		Long: `Print the instructions the tester agent receives when the given persona
plays the given script. Useful to debug personas and scripts without running
any agent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := testscript.Load(args[0])
			if err != nil {
				return err
			}

			catalog, err := a.loadCatalog()
			if err != nil {
				return err
			}

			var data *models.CustomerData
			if withCustomerData {
				if seed == 0 {
					seed = time.Now().UnixNano()
				}
				data = persona.NewCustomerData(rand.New(rand.NewSource(seed)))
			}

			prompt, err := catalog.ComposeFor(script.Body, personaID, data)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), prompt)
			return nil
		},
	}
	cmd.Flags().StringVarP(&personaID, "persona", "p", "", "Persona id (required)")
	cmd.Flags().BoolVar(&withCustomerData, "with-customer-data", false, "Include synthetic customer data")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for the customer data (0 = random)")
	_ = cmd.MarkFlagRequired("persona")

	return cmd
}

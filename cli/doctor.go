package cli

import (
	"fmt"

	"github.com/chxlky/trello-pm/internal/config"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the Trello credentials and configuration are in place",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0

	check := func(name string, ok bool, detail string) {
		if ok {
			fmt.Fprintf(out, "  ✓ %s\n", name)
			return
		}
		fmt.Fprintf(out, "  ✗ %s: %s\n", name, detail)
		failed++
	}

	check("API key and token", config.APIKeySet(),
		fmt.Sprintf("set %s and %s", config.EnvAPIKey, config.EnvAPIToken))

	fileOK := config.ConfigFileExists()
	check("configuration file", fileOK,
		fmt.Sprintf("point %s at a YAML file (see `trello-pm config init`)", config.EnvConfigFile))

	if fileOK {
		_, err := config.LoadFromEnv()
		detail := ""
		if err != nil {
			detail = err.Error()
		}
		check("configuration valid", err == nil, detail)
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

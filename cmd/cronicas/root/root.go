package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/cronicas-do-japao/internal/ui"
)

const Version = "0.1.0"

var (
	configPath string
	userID     string
)

var rootCmd = &cobra.Command{
	Use:           "cronicas",
	Short:         "Crônicas do Japão: uma vida no período Sengoku",
	Long:          "Cliente de linha de comando das Crônicas do Japão. Usa o mesmo armazenamento do servidor.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config/config.json", "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "local", "Player owning the characters")

	rootCmd.AddCommand(
		newCreateCmd(),
		newListCmd(),
		newStatusCmd(),
		newEventCmd(),
		newChooseCmd(),
		newAdvanceCmd(),
		newTravelCmd(),
		newHistoryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

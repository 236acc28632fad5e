package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/BioHazard786/eggcombat/internal/ui"
	"github.com/BioHazard786/eggcombat/internal/version"
	"github.com/spf13/cobra"
)

var (
	flagConfig    string
	flagEnvFile   string
	flagDomain    string
	flagSignaling string
	flagSTUN      string
	flagTURN      string
	flagTURNUser  string
	flagTURNPass  string
	flagRelay     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "eggcombat",
	Short: "Peer-to-peer egg shooter in your terminal, over WebRTC",
	Long: `Egg Combat puts a handful of eggs in an arena and lets them shoot each other.
One player hosts a room and shares its four character code; everyone else joins
with the code or the room link. Game traffic flows peer to peer over WebRTC data
channels, and the host relays it to every other player.

Run without a subcommand to open the menu.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(cmd.Context(), ui.ModeMenu, "")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// The error has already been printed; the caller decides the exit code.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		return err
	}
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&flagConfig, "config", "c", "", "Config file (default eggcombat.yaml)")
	flags.StringVar(&flagEnvFile, "env-file", "", "Dotenv file (default .env)")
	flags.StringVarP(&flagDomain, "domain", "d", "", "Custom domain")
	flags.StringVar(&flagSignaling, "signaling", "", "Signaling server URL (default wss://<domain>/ws)")
	flags.StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	flags.StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	flags.StringVarP(&flagTURNUser, "turn-user", "u", "", "TURN username")
	flags.StringVarP(&flagTURNPass, "turn-pass", "p", "", "TURN password")
	flags.BoolVarP(&flagRelay, "relay", "r", false, "Force relay mode")
}

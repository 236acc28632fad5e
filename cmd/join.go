package cmd

import (
	"github.com/BioHazard786/eggcombat/internal/roomcode"
	"github.com/BioHazard786/eggcombat/internal/session"
	"github.com/BioHazard786/eggcombat/internal/ui"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:     "join <code|link>",
	Aliases: []string{"j"},
	Short:   "Join a room by code or link",
	Long: `Join a hosted room. The room may be given as its four character code
or as the link the host shared.

Examples:
  eggcombat join B7XQ
  eggcombat join https://eggcombat.qzz.io/r/B7XQ`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := roomcode.ParseInput(args[0])
		if err != nil {
			return session.NewError("join room", err)
		}
		return play(cmd.Context(), ui.ModeJoin, code)
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
}

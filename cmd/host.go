package cmd

import (
	"github.com/BioHazard786/eggcombat/internal/ui"
	"github.com/spf13/cobra"
)

var hostCmd = &cobra.Command{
	Use:     "host",
	Aliases: []string{"h"},
	Short:   "Host a new room",
	Long: `Claim a fresh room code on the signaling server and open the arena.
Share the code or the room link; every player who joins connects to you,
and you relay their moves to everyone else.

Examples:
  eggcombat host
  eggcombat host --relay --turn turn.example.com -u egg -p secret`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(cmd.Context(), ui.ModeHost, "")
	},
}

func init() {
	rootCmd.AddCommand(hostCmd)
}

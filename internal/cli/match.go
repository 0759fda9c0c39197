package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match commands",
	}

	cmd.AddCommand(newMatchCreateCmd())
	cmd.AddCommand(newMatchListCmd())
	cmd.AddCommand(newMatchMineCmd())
	cmd.AddCommand(newMatchGetCmd())
	cmd.AddCommand(newMatchJoinCmd())
	cmd.AddCommand(newMatchBotCmd())
	cmd.AddCommand(newMatchRollCmd())
	cmd.AddCommand(newMatchMovesCmd())
	cmd.AddCommand(newMatchMoveCmd())
	cmd.AddCommand(newMatchPassCmd())

	return cmd
}

func matchPath(id string, suffix string) string {
	return "/api/v1/matches/" + id + suffix
}

func newMatchCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Open a new match and wait for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchState
			if err := client.Post("/api/v1/matches", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newMatchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List matches waiting for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchList
			if err := client.Get("/api/v1/matches", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newMatchMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your unfinished matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchList
			if err := client.Get("/api/v1/matches/mine", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <match-id>",
		Short: "Show a match's board, dice and log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchState
			if err := client.Get(matchPath(args[0], ""), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newMatchJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <match-id>",
		Short: "Join a waiting match as player 2",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ActionResult
			if err := client.Post(matchPath(args[0], "/join"), nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newMatchBotCmd() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "bot <match-id>",
		Short: "Seat a bot opponent in your waiting match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if strategy != "" {
				req["strategy"] = strategy
			}

			var result AddBotResult
			if err := client.Post(matchPath(args[0], "/bot"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "", "Bot strategy: random, greedy (default random)")

	return cmd
}

func newMatchRollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roll <match-id>",
		Short: "Roll the dice for your turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RollResult
			if err := client.Post(matchPath(args[0], "/roll"), nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newMatchMovesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "moves <match-id>",
		Short: "List your legal moves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result LegalMoves
			if err := client.Get(matchPath(args[0], "/moves"), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newMatchMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <match-id> <from> <to>",
		Short: "Move a checker; use 'off' or 0 as <to> to bear off",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parsePoint(args[1])
			if err != nil {
				return err
			}
			to, err := parsePoint(args[2])
			if err != nil {
				return err
			}

			req := map[string]int{"from": from, "to": to}
			var result MoveResult
			if err := client.Post(matchPath(args[0], "/move"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newMatchPassCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pass <match-id>",
		Short: "Pass when you have rolled and cannot move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result ActionResult
			if err := client.Post(matchPath(args[0], "/pass"), nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

// parsePoint accepts a point number or "off" for the borne-off slot
func parsePoint(s string) (int, error) {
	if strings.EqualFold(s, "off") {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid point %q: must be a number or 'off'", s)
	}
	return n, nil
}

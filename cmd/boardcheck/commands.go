package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/obslog"
	"github.com/park285/cheese-board/pkg/boardclient"
	"github.com/park285/cheese-board/pkg/boarddto"
)

type globalOpts struct {
	baseURL  string
	playerID string
	timeout  time.Duration
}

func Root() *cobra.Command {
	opts := &globalOpts{}
	root := &cobra.Command{
		Use:   "boardcheck",
		Short: "Check and drive a running board-server",
		Long: heredoc.Doc(`boardcheck talks to a board-server over its HTTP API.

			The server address comes from --url or BOARD_BASE_URL. Squares
			are given as file and rank indices in [0,7]; rank 0 is black's
			back rank.`),
		Args: cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.baseURL, "url", os.Getenv("BOARD_BASE_URL"), "board-server base URL")
	root.PersistentFlags().StringVarP(&opts.playerID, "player", "p", os.Getenv("X_PLAYER_ID"), "player id sent with interactions")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 8*time.Second, "per-request timeout")

	root.AddCommand(healthCmd(opts))
	root.AddCommand(createCmd(opts))
	root.AddCommand(showCmd(opts))
	root.AddCommand(clickCmd(opts))
	root.AddCommand(seatCmd(opts))
	root.AddCommand(closeCmd(opts))
	root.AddCommand(smokeCmd(opts))
	return root
}

func (o *globalOpts) client() (*boardclient.Client, error) {
	if o.baseURL == "" {
		return nil, fmt.Errorf("--url or BOARD_BASE_URL is required")
	}
	headers := func() map[string]string {
		return map[string]string{"User-Agent": "boardcheck"}
	}
	return boardclient.NewClient(o.baseURL,
		boardclient.WithHeaderProvider(headers),
		boardclient.WithTimeout(o.timeout),
	), nil
}

func healthCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check /healthz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.Health(cmd.Context()); err != nil {
				return err
			}
			obslog.L().Info("healthz ok", zap.String("url", opts.baseURL))
			return nil
		},
	}
}

func createCmd(opts *globalOpts) *cobra.Command {
	var white, black string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session in the standard position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			v, err := c.CreateSession(cmd.Context(), white, black)
			if err != nil {
				return err
			}
			printView(cmd, v)
			return nil
		},
	}
	cmd.Flags().StringVar(&white, "white", "", "player seated as white (empty leaves it open)")
	cmd.Flags().StringVar(&black, "black", "", "player seated as black (empty leaves it open)")
	return cmd
}

func showCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			v, err := c.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printView(cmd, v)
			return nil
		},
	}
}

func clickCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "click <session-id> <file> <rank>",
		Short: "Report one square interaction",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("file: %w", err)
			}
			rank, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("rank: %w", err)
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			res, err := c.Interact(cmd.Context(), args[0], opts.playerID, file, rank)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", res.Outcome, res.Message)
			printView(cmd, res.Session)
			return nil
		},
	}
}

func seatCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "seat <session-id> <white|black>",
		Short: "Claim an open side for --player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			v, err := c.ClaimSeat(cmd.Context(), args[0], opts.playerID, args[1])
			if err != nil {
				return err
			}
			printView(cmd, v)
			return nil
		},
	}
}

func closeCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "close <session-id>",
		Short: "Close a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			v, err := c.CloseSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s after %d plies\n", v.ID, v.Status, v.Ply)
			return nil
		},
	}
}

func smokeCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Health check, then play e2-e4 on a throwaway session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := c.Health(ctx); err != nil {
				return err
			}
			v, err := c.CreateSession(ctx, "", "")
			if err != nil {
				return err
			}
			defer func() {
				if _, err := c.CloseSession(context.Background(), v.ID); err != nil {
					obslog.L().Warn("close session", zap.String("session_id", v.ID), zap.Error(err))
				}
			}()

			for _, sq := range [][2]int{{4, 6}, {4, 4}} {
				res, err := c.Interact(ctx, v.ID, opts.playerID, sq[0], sq[1])
				if err != nil {
					return err
				}
				obslog.L().Info("interact", zap.Int("file", sq[0]), zap.Int("rank", sq[1]), zap.String("outcome", res.Outcome))
				v = res.Session
			}
			if v.Turn != "black" || v.Ply != 1 {
				return fmt.Errorf("unexpected state after e2-e4: turn=%s ply=%d", v.Turn, v.Ply)
			}
			printView(cmd, v)
			return nil
		},
	}
}

func printView(cmd *cobra.Command, v *boarddto.SessionView) {
	if v == nil {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s  status=%s  turn=%s  ply=%d\n", v.ID, v.Status, v.Turn, v.Ply)
	if v.Selection != nil {
		fmt.Fprintf(out, "selected (%d,%d), %d targets\n", v.Selection.File, v.Selection.Rank, len(v.Targets))
	}
	if v.Diagram != "" {
		fmt.Fprintln(out, v.Diagram)
	} else {
		fmt.Fprintln(out, v.Placement)
	}
}

// replogctl is a command line client for a replog node.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GildaBit/replog/clients/go/replog"
)

var nodeURL string

var rootCmd = &cobra.Command{
	Use:   "replogctl",
	Short: "Client for the replog replicated message board",
	Long: `replogctl talks to a single replog node over HTTP.

Examples:
  # Post a message through the local node
  replogctl post "hello cluster" --user alice

  # Read another node's local view
  replogctl read --node http://localhost:8082`,
}

var postCmd = &cobra.Command{
	Use:   "post <text>",
	Short: "Post a message to the board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		c := replog.NewClient(nodeURL)

		result, err := c.PostMessage(args[0], user)
		if err != nil {
			if apiErr, ok := err.(*replog.APIError); ok && apiErr.Result != nil {
				fmt.Printf("rejected: %d/%d acks (quorum not reached)\n",
					apiErr.Result.Acks, apiErr.Result.Required)
				os.Exit(1)
			}
			return err
		}

		switch result.Status {
		case "committed":
			fmt.Printf("committed: %s (%d/%d acks)\n", result.MessageID, result.Acks, result.Required)
		case "accepted":
			fmt.Printf("accepted: %s (propagating via gossip)\n", result.MessageID)
		default:
			fmt.Printf("%s: %s\n", result.Status, result.MessageID)
		}
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the node's local view of the board",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := replog.NewClient(nodeURL)
		board, err := c.GetMessages()
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s mode, local scope, %d messages)\n\n", board.NodeID, board.Mode, board.Count)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tUSER\tORIGIN\tTEXT")
		for _, m := range board.Messages {
			fmt.Fprintf(w, "%s\t%s\t%s/%d\t%s\n",
				m.AcceptedAt.Local().Format("15:04:05"), m.User, m.Origin, m.Version, m.Text)
		}
		return w.Flush()
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show node health",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := replog.NewClient(nodeURL)
		h, err := c.GetHealth()
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s (v%s, %s mode, %d replicas)\n", h.NodeID, h.Status, h.Version, h.Mode, h.Replicas)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show node replication statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := replog.NewClient(nodeURL)
		s, err := c.GetStats()
		if err != nil {
			return err
		}

		fmt.Printf("node:     %s (%s mode)\n", s.NodeID, s.Mode)
		fmt.Printf("replicas: %d\n", s.Replicas)
		fmt.Printf("local:    %d messages\n", s.Local)
		if s.Archived >= 0 {
			fmt.Printf("archived: %d messages\n", s.Archived)
		}
		fmt.Printf("uptime:   %ds\n", s.UptimeSecs)
		for origin, v := range s.ByOrigin {
			fmt.Printf("  %s: version %d\n", origin, v)
		}
		return nil
	},
}

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Show the node's cluster view",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := replog.NewClient(nodeURL)
		p, err := c.GetPeers()
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s mode, quorum size %d)\n\n", p.NodeID, p.Mode, p.QuorumSize)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PEER\tADDR\tLAST OK\tLAST ERROR")
		for _, peer := range p.Peers {
			lastOK := peer.LastOK
			if lastOK == "" {
				lastOK = "-"
			}
			lastErr := peer.LastError
			if lastErr == "" {
				lastErr = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", peer.ID, peer.Addr, lastOK, lastErr)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&nodeURL, "node", "http://localhost:8080", "Base URL of the node to talk to")
	postCmd.Flags().String("user", "", "User name attached to the message")

	rootCmd.AddCommand(postCmd, readCmd, healthCmd, statsCmd, peersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

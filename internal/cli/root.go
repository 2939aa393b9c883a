// Package cli provides the command-line interface for auto-portforward.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/soraxas/auto-portforward/internal/agent"
	"github.com/soraxas/auto-portforward/internal/appconfig"
	"github.com/soraxas/auto-portforward/internal/doctor"
	"github.com/soraxas/auto-portforward/internal/events"
	"github.com/soraxas/auto-portforward/internal/history"
	"github.com/soraxas/auto-portforward/internal/procscan"
	"github.com/soraxas/auto-portforward/internal/profile"
	"github.com/soraxas/auto-portforward/internal/provider"
	"github.com/soraxas/auto-portforward/internal/sshclient"
	"github.com/soraxas/auto-portforward/internal/sshhosts"
	"github.com/soraxas/auto-portforward/internal/ui"
	"github.com/soraxas/auto-portforward/internal/util"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var (
		hostFlag string
		useMock  bool
		useLocal bool
	)
	root := &cobra.Command{
		Use:   "auto-portforward",
		Short: "Monitor remote listening ports and forward them on demand",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load()
			if err != nil {
				return err
			}
			prov, err := resolveProvider(cfg, hostFlag, useMock, useLocal)
			if err != nil {
				return err
			}
			defer prov.Cleanup()
			return ui.Run(prov, cfg)
		},
	}
	root.Flags().StringVar(&hostFlag, "host", "", "SSH host to monitor (defaults to default_host from config, else local)")
	root.Flags().BoolVar(&useMock, "mock", false, "use a fixed fake process set")
	root.Flags().BoolVar(&useLocal, "local", false, "monitor this machine instead of a remote host")

	root.AddCommand(newListCmd())
	root.AddCommand(newHostsCmd())
	root.AddCommand(newForwardCmd())
	root.AddCommand(newProfileCmd())
	root.AddCommand(newConnectCmd())
	root.AddCommand(newAgentCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newEventsCmd())
	return root
}

// resolveProvider picks the monitoring backend for the TUI.
func resolveProvider(cfg appconfig.Config, host string, useMock, useLocal bool) (provider.Provider, error) {
	switch {
	case useMock:
		return provider.NewMock(), nil
	case useLocal:
		return provider.NewLocal(), nil
	}
	if host == "" {
		host = cfg.DefaultHost
	}
	if host == "" {
		return provider.NewLocal(), nil
	}
	return connectRemote(cfg, host)
}

func connectRemote(cfg appconfig.Config, host string) (*provider.Remote, error) {
	if err := sshclient.EnsureSSHBinary(); err != nil {
		return nil, err
	}
	client := sshclient.New()
	prov := provider.NewRemote(provider.RemoteDeps{Launcher: client, Starter: client}, host, provider.RemoteOptions{
		AgentCommand: cfg.RemoteAgentCommand,
		Secret:       os.Getenv(util.SudoPasswordEnv),
		ForwardGrace: time.Duration(cfg.ForwardGraceSeconds) * time.Second,
		Journal:      events.NewStore(),
	})
	if !prov.Connect() {
		return nil, fmt.Errorf("could not establish monitoring bridge to %s", host)
	}
	if err := history.Touch(host); err != nil {
		fmt.Fprintf(os.Stderr, "warning: record host history: %v\n", err)
	}
	return prov, nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List local processes with listening ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := procscan.Snapshot()
			if err != nil {
				return err
			}
			type rec struct {
				pid  int
				name string
				stat string
				tcp  []int
				udp  []int
				cwd  string
			}
			rows := make([]rec, 0, len(snap))
			for _, p := range snap {
				rows = append(rows, rec{pid: p.PID, name: p.Name, stat: p.Status, tcp: p.TCP, udp: p.UDP, cwd: p.Cwd})
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].pid < rows[j].pid })
			fmt.Printf("%-8s %-24s %-10s %-20s %-20s %s\n", "PID", "NAME", "STATUS", "TCP", "UDP", "CWD")
			for _, r := range rows {
				fmt.Printf("%-8d %-24s %-10s %-20s %-20s %s\n", r.pid, r.name, util.EmptyDash(r.stat), util.EmptyDash(util.JoinPorts(r.tcp)), util.EmptyDash(util.JoinPorts(r.udp)), util.EmptyDash(r.cwd))
			}
			return nil
		},
	}
}

func newHostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "List SSH hosts from ~/.ssh/config, most recently used first",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := sshhosts.ParseDefault()
			if err != nil {
				return err
			}
			lastUsed, err := history.LastUsed()
			if err != nil {
				lastUsed = map[string]int64{}
			}
			aliases := history.SortRecent(res.Aliases(), lastUsed)
			byAlias := map[string]sshhosts.Host{}
			for _, h := range res.Hosts {
				byAlias[h.Alias] = h
			}
			fmt.Printf("%-24s %-28s %-16s %s\n", "ALIAS", "HOSTNAME", "USER", "LAST USED")
			for _, alias := range aliases {
				h := byAlias[alias]
				last := "-"
				if ts := lastUsed[alias]; ts > 0 {
					last = time.Unix(ts, 0).Format("2006-01-02 15:04")
				}
				fmt.Printf("%-24s %-28s %-16s %s\n", h.Alias, h.HostName, util.EmptyDash(h.User), last)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			return nil
		},
	}
}

func newForwardCmd() *cobra.Command {
	var profileName string
	cmd := &cobra.Command{
		Use:   "forward [host] [port...]",
		Short: "Forward ports from a host without the TUI",
		Long:  "Forward the given remote ports to the same local ports and keep them up until interrupted. With --profile the host and ports come from a saved profile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load()
			if err != nil {
				return err
			}

			var host string
			var ports []int
			if profileName != "" {
				def, err := profile.Get(profileName)
				if err != nil {
					return err
				}
				host, ports = def.Host, def.Ports
				if len(args) > 0 {
					host = args[0]
				}
			} else {
				if len(args) < 2 {
					return fmt.Errorf("usage: forward <host> <port>... (or --profile <name>)")
				}
				host = args[0]
				for _, a := range args[1:] {
					p, err := strconv.Atoi(a)
					if err != nil {
						return fmt.Errorf("invalid port %q", a)
					}
					if err := util.ValidatePort(p); err != nil {
						return err
					}
					ports = append(ports, p)
				}
			}

			prov, err := connectRemote(cfg, host)
			if err != nil {
				return err
			}
			defer prov.Cleanup()
			prov.SetToggledPorts(ports)

			active := prov.ActivePorts()
			if len(active) == 0 {
				return fmt.Errorf("no forwards could be started on %s", host)
			}
			fmt.Printf("forwarding %s on %s; press Ctrl-C to stop\n", util.JoinPorts(active), host)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			<-sigCh
			return nil
		},
	}
	cmd.Flags().StringVar(&profileName, "profile", "", "use a saved port profile")
	return cmd
}

func newProfileCmd() *cobra.Command {
	root := &cobra.Command{Use: "profile", Short: "Manage saved port profiles"}

	create := &cobra.Command{
		Use:   "create <name> <host> <port>...",
		Short: "Save a named port set for a host",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ports []int
			for _, a := range args[2:] {
				p, err := strconv.Atoi(a)
				if err != nil {
					return fmt.Errorf("invalid port %q", a)
				}
				ports = append(ports, p)
			}
			if err := profile.Create(args[0], args[1], ports); err != nil {
				return err
			}
			fmt.Printf("saved profile %s (%s: %s)\n", args[0], args[1], util.JoinPorts(ports))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := profile.LoadAll()
			if err != nil {
				return err
			}
			fmt.Printf("%-20s %-24s %s\n", "NAME", "HOST", "PORTS")
			for _, def := range defs {
				fmt.Printf("%-20s %-24s %s\n", def.Name, def.Host, util.JoinPorts(def.Ports))
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := profile.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted profile %s\n", args[0])
			return nil
		},
	}

	root.AddCommand(create, list, del)
	return root
}

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <host>",
		Short: "Open an interactive SSH session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sshclient.EnsureSSHBinary(); err != nil {
				return err
			}
			// Interactive sessions may last for hours.
			ctx, cancel := context.WithTimeout(context.Background(), 24*time.Hour)
			defer cancel()
			if err := sshclient.New().RunInteractive(ctx, args[0]); err != nil {
				return err
			}
			return history.Touch(args[0])
		},
	}
}

// newAgentCmd is the remote side of the bridge: it dials the reverse-tunneled
// controller socket and streams snapshots until the connection drops. It is
// hidden because operators never invoke it directly.
func newAgentCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "agent <port>",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid port %q", args[0])
			}
			if err := util.ValidatePort(port); err != nil {
				return err
			}
			conn, err := agent.Dial(port)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return agent.Run(ctx, conn, util.AgentInterval)
		},
	}
}

func newDoctorCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the local forwarding environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := doctor.Run()
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else if len(report.Issues) == 0 {
				fmt.Println("no issues found")
			} else {
				fmt.Printf("%-8s %-20s %-32s %s\n", "SEV", "CHECK", "TARGET", "MESSAGE")
				for _, is := range report.Issues {
					fmt.Printf("%-8s %-20s %-32s %s\n", is.Severity, is.Check, is.Target, is.Message)
				}
			}
			if report.HasHigh() {
				return fmt.Errorf("high severity issues found")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}

func newEventsCmd() *cobra.Command {
	var (
		hostFilter string
		typeFilter string
		portFilter int
		sinceArg   string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recorded forward and bridge lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := events.Query{Host: hostFilter, EventType: typeFilter, Port: portFilter, Limit: limit}
			if sinceArg != "" {
				d, err := time.ParseDuration(sinceArg)
				if err != nil {
					return fmt.Errorf("invalid --since duration %q", sinceArg)
				}
				q.Since = time.Now().Add(-d)
			}
			evts, err := events.NewStore().Read(q)
			if err != nil {
				return err
			}
			fmt.Printf("%-22s %-20s %-18s %-6s %s\n", "TIMESTAMP", "HOST", "TYPE", "PORT", "MESSAGE")
			for _, e := range evts {
				port := "-"
				if e.Port > 0 {
					port = strconv.Itoa(e.Port)
				}
				fmt.Printf("%-22s %-20s %-18s %-6s %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), util.EmptyDash(e.Host), e.EventType, port, e.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&hostFilter, "host", "", "filter by host")
	cmd.Flags().StringVar(&typeFilter, "type", "", "filter by event type")
	cmd.Flags().IntVar(&portFilter, "port", 0, "filter by port")
	cmd.Flags().StringVar(&sinceArg, "since", "", "only events newer than this duration (e.g. 24h)")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of events")
	return cmd
}

// Package doctor runs local diagnostics for forwarding setups.
package doctor

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"

	"github.com/soraxas/auto-portforward/internal/appconfig"
	"github.com/soraxas/auto-portforward/internal/profile"
	"github.com/soraxas/auto-portforward/internal/sshclient"
	"github.com/soraxas/auto-portforward/internal/sshhosts"
	"github.com/soraxas/auto-portforward/internal/util"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Issue struct {
	Severity       Severity `json:"severity"`
	Check          string   `json:"check"`
	Target         string   `json:"target"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

func (r Report) HasHigh() bool {
	for _, is := range r.Issues {
		if is.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// Run executes local diagnostics.
func Run() (Report, error) {
	var issues []Issue

	if err := sshclient.EnsureSSHBinary(); err != nil {
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "ssh-binary",
			Target:         "PATH",
			Message:        err.Error(),
			Recommendation: "install OpenSSH client and ensure `ssh` is on PATH",
		})
	}

	if res, err := sshhosts.ParseDefault(); err == nil {
		for _, w := range res.Warnings {
			issues = append(issues, Issue{
				Severity:       SeverityMedium,
				Check:          "ssh-config",
				Target:         "~/.ssh/config",
				Message:        w,
				Recommendation: "fix malformed/unsupported SSH config directives",
			})
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		checkPathPerm(&issues, filepath.Join(home, ".ssh"), 0o700, false)
		checkPathPerm(&issues, filepath.Join(home, ".ssh", "config"), 0o600, true)
	}
	if cfgDir, err := appconfig.ConfigDir(); err == nil {
		checkPathPerm(&issues, cfgDir, 0o700, false)
		checkPathPerm(&issues, filepath.Join(cfgDir, "config.yaml"), 0o600, true)
		checkPathPerm(&issues, filepath.Join(cfgDir, "profiles.yaml"), 0o600, true)
	}

	issues = append(issues, profilePortIssues()...)

	sort.Slice(issues, func(i, j int) bool {
		ri := severityRank(issues[i].Severity)
		rj := severityRank(issues[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if issues[i].Check != issues[j].Check {
			return issues[i].Check < issues[j].Check
		}
		if issues[i].Target != issues[j].Target {
			return issues[i].Target < issues[j].Target
		}
		return issues[i].Message < issues[j].Message
	})
	return Report{Issues: issues}, nil
}

// profilePortIssues reports saved profile ports that are already bound
// locally, which would make `ssh -L` startup fail.
func profilePortIssues() []Issue {
	defs, err := profile.LoadAll()
	if err != nil {
		return nil
	}
	var issues []Issue
	checked := map[int]bool{}
	for _, def := range defs {
		for _, port := range def.Ports {
			if checked[port] {
				continue
			}
			checked[port] = true
			if err := util.ValidatePort(port); err != nil {
				issues = append(issues, Issue{
					Severity:       SeverityMedium,
					Check:          "profile-port",
					Target:         fmt.Sprintf("%s:%d", def.Name, port),
					Message:        err.Error(),
					Recommendation: "remove the invalid port from the profile",
				})
				continue
			}
			ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
			if err != nil {
				issues = append(issues, Issue{
					Severity:       SeverityLow,
					Check:          "port-in-use",
					Target:         fmt.Sprintf("localhost:%d", port),
					Message:        "local port is already bound",
					Recommendation: "free the port or remove it from the profile before forwarding",
				})
				continue
			}
			ln.Close()
		}
	}
	return issues
}

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}

func checkPathPerm(issues *[]Issue, path string, max os.FileMode, isFile bool) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		*issues = append(*issues, Issue{
			Severity:       SeverityLow,
			Check:          "file-permissions",
			Target:         path,
			Message:        fmt.Sprintf("unable to inspect permissions: %v", err),
			Recommendation: "verify path and permissions manually",
		})
		return
	}
	mode := st.Mode().Perm()
	if mode > max {
		kind := "directory"
		if isFile {
			kind = "file"
		}
		*issues = append(*issues, Issue{
			Severity:       SeverityMedium,
			Check:          "file-permissions",
			Target:         path,
			Message:        fmt.Sprintf("%s permissions are too broad (%#o)", kind, mode),
			Recommendation: fmt.Sprintf("restrict permissions to %#o or tighter", max),
		})
	}
}

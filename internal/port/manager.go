// Package port decides which TCP port the storefront listens on.
package port

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/vishxl-0001/vipn/pkg/logger"
)

// DefaultPort is used in containers and whenever nothing else applies
const DefaultPort = 8080

// DefaultRange is scanned for a free port in local development
const DefaultRange = "8080-8090"

// Environment represents the deployment environment
type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDocker     Environment = "docker"
	EnvKubernetes Environment = "kubernetes"
	EnvProduction Environment = "production"
)

// Fixed reports whether the environment expects a fixed, known port
func (e Environment) Fixed() bool {
	return e != EnvLocal
}

// DetectEnvironment inspects the process environment
func DetectEnvironment() Environment {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" ||
		os.Getenv("KUBERNETES_PORT") != "" ||
		fileExists("/var/run/secrets/kubernetes.io/serviceaccount/token") {
		return EnvKubernetes
	}
	if os.Getenv("COMPOSE_PROJECT_NAME") != "" {
		return EnvDocker
	}
	if os.Getenv("GO_ENV") == "production" || os.Getenv("ENVIRONMENT") == "production" {
		return EnvProduction
	}
	return EnvLocal
}

// Strategy is the outcome of port selection
type Strategy struct {
	Port        int
	Source      string
	Environment Environment
}

// Manager selects a listen port for the current environment
type Manager struct {
	host      string
	portRange string
	env       Environment
	logger    logger.Logger
}

// NewManager creates a manager binding on host. An empty portRange uses
// DefaultRange.
func NewManager(host, portRange string, env Environment, log logger.Logger) *Manager {
	if portRange == "" {
		portRange = DefaultRange
	}
	return &Manager{host: host, portRange: portRange, env: env, logger: log}
}

// Strategy resolves requested into a port. A positive request always wins;
// zero means "pick one": the default port in containers, the first free port
// of the range locally.
func (m *Manager) Strategy(requested int) Strategy {
	switch {
	case requested > 0:
		return Strategy{Port: requested, Source: "explicit-port", Environment: m.env}
	case m.env.Fixed():
		return Strategy{Port: DefaultPort, Source: string(m.env) + "-fixed", Environment: m.env}
	default:
		return Strategy{Port: m.findAvailablePortInRange(), Source: "auto-discovery", Environment: m.env}
	}
}

// DeterminePort returns the port to listen on and logs how it was chosen
func (m *Manager) DeterminePort(requested int) int {
	s := m.Strategy(requested)
	m.logger.Info("Port strategy determined",
		"port", s.Port,
		"source", s.Source,
		"environment", string(s.Environment),
		"host", m.host,
	)
	return s.Port
}

func (m *Manager) findAvailablePortInRange() int {
	start, end := m.parsePortRange()
	for p := start; p <= end; p++ {
		if m.isPortAvailable(p) {
			return p
		}
	}

	m.logger.Warn("No ports available in range, asking the OS", "range", m.portRange)
	listener, err := net.Listen("tcp", net.JoinHostPort(m.host, "0"))
	if err != nil {
		m.logger.Error("Failed to find any available port", "error", err)
		return DefaultPort
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

func (m *Manager) parsePortRange() (int, int) {
	parts := strings.Split(m.portRange, "-")
	if len(parts) == 2 {
		start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 == nil && err2 == nil && start > 0 && start <= end && end <= 65535 {
			return start, end
		}
	}
	m.logger.Warn("Invalid port range, using default", "range", m.portRange, "default", DefaultRange)
	return 8080, 8090
}

func (m *Manager) isPortAvailable(p int) bool {
	listener, err := net.Listen("tcp", m.Address(p))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// Address returns host:port
func (m *Manager) Address(p int) string {
	return net.JoinHostPort(m.host, strconv.Itoa(p))
}

// PublicURL is the URL to print for humans
func (m *Manager) PublicURL(p int) string {
	host := m.host
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(p)))
}

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}

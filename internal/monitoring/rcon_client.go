package monitoring

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gorcon/rcon"
	"github.com/payperplay/mcwatch/internal/models"
	"github.com/payperplay/mcwatch/pkg/logger"
)

// RCONClient opens one short-lived session per command
type RCONClient struct {
	host     string
	port     int
	password string
	timeout  time.Duration
}

// NewRCONClient creates a new RCON client
func NewRCONClient(host string, port int, password string, timeout time.Duration) *RCONClient {
	return &RCONClient{
		host:     host,
		port:     port,
		password: password,
		timeout:  timeout,
	}
}

// Execute dials, authenticates, runs one command and closes the session
func (r *RCONClient) Execute(ctx context.Context, command string) (string, error) {
	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout || timeout == 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		return "", fmt.Errorf("RCON timeout exceeded before dialing")
	}

	address := net.JoinHostPort(r.host, strconv.Itoa(r.port))
	conn, err := rcon.Dial(address, r.password,
		rcon.SetDialTimeout(timeout),
		rcon.SetDeadline(timeout),
	)
	if err != nil {
		return "", fmt.Errorf("RCON connection failed: %w", err)
	}
	defer conn.Close()

	response, err := conn.Execute(command)
	if err != nil {
		return "", fmt.Errorf("RCON command failed: %w", err)
	}

	return response, nil
}

// ConsoleExecutor runs remote console commands against tracked servers
type ConsoleExecutor struct {
	timeout     time.Duration
	defaultPort int
}

func NewConsoleExecutor(timeout time.Duration, defaultPort int) *ConsoleExecutor {
	if defaultPort == 0 {
		defaultPort = models.DefaultRemoteConsolePort
	}
	return &ConsoleExecutor{timeout: timeout, defaultPort: defaultPort}
}

// Execute returns ("", false) when the console is not configured or on any
// connect, auth or command failure. Failures are logged, never returned.
func (e *ConsoleExecutor) Execute(ctx context.Context, srv *models.TrackedServer, command string) (string, bool) {
	rc := srv.RemoteConsole
	if rc == nil || !rc.Enabled || rc.Password == "" {
		return "", false
	}

	host := rc.Host
	if host == "" {
		host = srv.Host()
	}
	port := rc.Port
	if port == 0 {
		port = e.defaultPort
	}

	response, err := NewRCONClient(host, port, rc.Password, e.timeout).Execute(ctx, command)
	if err != nil {
		logger.Warn("Remote console command failed", map[string]interface{}{
			"host":  host,
			"port":  port,
			"error": err.Error(),
		})
		ConsoleCommandsTotal.WithLabelValues("failed").Inc()
		return "", false
	}

	ConsoleCommandsTotal.WithLabelValues("ok").Inc()
	return response, true
}

package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

const pingTimeout = 1500 * time.Millisecond

// dialAddress turns a URL or a bare host:port into a dialable address.
func dialAddress(target string) (string, error) {
	if !strings.Contains(target, "://") {
		if _, _, err := net.SplitHostPort(target); err != nil {
			return "", fmt.Errorf("invalid address %q: %w", target, err)
		}
		return target, nil
	}

	parsedURL, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	port := parsedURL.Port()
	if port == "" {
		switch parsedURL.Scheme {
		case "https":
			port = "443"
		case "redis":
			port = "6379"
		default:
			port = "80"
		}
	}
	return net.JoinHostPort(parsedURL.Hostname(), port), nil
}

// PingService opens and closes a TCP connection to target, a URL or host:port.
func PingService(ctx context.Context, target string, timeout time.Duration) error {
	address, err := dialAddress(target)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return conn.Close()
}

// PingAuthorizer checks if the Authorizer service is reachable
func PingAuthorizer(authzURL string) error {
	return PingService(context.Background(), authzURL, pingTimeout)
}

// PingAny succeeds when at least one of the seed brokers accepts a connection.
func PingAny(ctx context.Context, brokers []string) error {
	var errs []string
	for _, b := range brokers {
		err := PingService(ctx, b, pingTimeout)
		if err == nil {
			return nil
		}
		errs = append(errs, err.Error())
	}
	if len(errs) == 0 {
		return fmt.Errorf("no brokers configured")
	}
	return fmt.Errorf("no broker reachable: %s", strings.Join(errs, "; "))
}

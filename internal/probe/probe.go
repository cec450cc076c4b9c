// Package probe checks that a database accepts connections. Each probe opens
// at most one connection and always releases it; nothing is pooled between
// calls.
package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/lib/pq"
)

const DefaultTimeout = 5 * time.Second

var (
	ErrDriverUnavailable = errors.New("probe: database driver not installed")
	ErrNotConfigured     = errors.New("probe: database url not configured")
)

// Prober reports whether a database accepts connections. A missing driver is
// reported before a missing dsn.
type Prober interface {
	Probe(ctx context.Context, dsn string) error
}

// New returns a SQLProber when driverName is registered with database/sql and
// an Unavailable prober otherwise.
func New(driverName string, timeout time.Duration) Prober {
	if !registered(driverName) {
		return Unavailable{Driver: driverName}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return SQLProber{Driver: driverName, Timeout: timeout}
}

func registered(driverName string) bool {
	for _, d := range sql.Drivers() {
		if d == driverName {
			return true
		}
	}

	return false
}

type SQLProber struct {
	Driver  string
	Timeout time.Duration
}

// Probe opens one connection and pings it. The whole attempt, handshake
// included, is bounded by Timeout and by ctx. A connection that completes
// after the deadline is closed in the background.
func (p SQLProber) Probe(ctx context.Context, dsn string) error {
	if dsn == "" {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	db, err := p.open(dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		err := ping(ctx, db)
		db.Close()
		done <- err
	}()

	select {
	case err := <-done:
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return fmt.Errorf("connect db: %w", ctx.Err())
		case errors.Is(err, os.ErrDeadlineExceeded):
			// The socket carries the same deadline as ctx and may expire first.
			return fmt.Errorf("connect db: %w", context.DeadlineExceeded)
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("connect db: %w", ctx.Err())
	}
}

func (p SQLProber) open(dsn string) (*sql.DB, error) {
	var db *sql.DB
	if p.Driver == "postgres" {
		connector, err := pq.NewConnector(dsn)
		if err != nil {
			return nil, err
		}
		connector.Dialer(deadlineDialer{})
		db = sql.OpenDB(connector)
	} else {
		var err error
		db, err = sql.Open(p.Driver, dsn)
		if err != nil {
			return nil, err
		}
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)
	return db, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer conn.Close()

	err = conn.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	return nil
}

// deadlineDialer carries the context deadline onto the socket so the
// Postgres startup handshake cannot outlive it.
type deadlineDialer struct {
	net.Dialer
}

func (d deadlineDialer) Dial(network, address string) (net.Conn, error) {
	return d.Dialer.Dial(network, address)
}

func (d deadlineDialer) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return d.DialContext(ctx, network, address)
}

func (d deadlineDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		err = conn.SetDeadline(deadline)
		if err != nil {
			conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

type Unavailable struct {
	Driver string
}

func (u Unavailable) Probe(context.Context, string) error {
	return ErrDriverUnavailable
}

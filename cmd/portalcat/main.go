// Command portalcat connects to a portal server, prints the events it
// receives and sends the lines it reads from stdin.
package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gookit/color"
	"github.com/karagenc/portal-go"
	"github.com/karagenc/portal-go/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

func main() {
	o, err := parseArgs(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}
	config, err := o.socketConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}

	out, in, exitFunc, err := initTerm()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	socket := portal.NewSocket(o.URL, config)
	if o.Metrics != "" {
		metrics.New(nil).Instrument(socket)
		go serveMetrics(out, o.Metrics)
	}

	socket.OnConnecting(func() {
		fmt.Fprintf(out, "%s\n", color.FgDarkGray.Sprintf("Connecting to %s", o.URL))
	})
	socket.OnOpen(func() {
		fmt.Fprintf(out, "%s\n", color.FgGreen.Sprintf("Connected. ID: %s", socket.ID()))
	})
	socket.OnClose(func(reason portal.Reason) {
		fmt.Fprintf(out, "%s\n", color.FgYellow.Sprintf("Closed: %s", reason))
	})
	socket.OnWaiting(func(delay time.Duration, attempt int) {
		fmt.Fprintf(out, "%s\n", color.FgDarkGray.Sprintf("Reconnecting in %s (attempt %d)", delay, attempt))
	})
	socket.OnAny(func(event string, data any) {
		fmt.Fprintf(out, "%s %s\n", getEventColor(event).Sprint(event), formatData(data))
	})

	socket.Open()

	for {
		line, err := in.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			socket.Close()
			exitFunc(1)
		}
		cmd, ok := parseLine(line, o.Event)
		if !ok {
			continue
		}
		if !cmd.reply {
			socket.Send(cmd.event, cmd.data)
			continue
		}
		event := cmd.event
		socket.Send(event, cmd.data, func(data any) {
			fmt.Fprintf(out, "%s %s\n", color.FgGreen.Sprintf("%s replied:", event), formatData(data))
		}, func(data any) {
			fmt.Fprintf(out, "%s %s\n", color.FgRed.Sprintf("%s failed:", event), formatData(data))
		})
	}
	socket.Close()
	exitFunc(0)
}

func serveMetrics(out io.Writer, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(out, "%s\n", color.FgRed.Sprintf("Metrics server: %v", err))
	}
}

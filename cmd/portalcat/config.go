package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/karagenc/portal-go"
	"github.com/karagenc/portal-go/serializer/fast"
	"github.com/karagenc/portal-go/transport"
	"github.com/karagenc/portal-go/transport/httpbase"
	"github.com/karagenc/portal-go/transport/longpoll"
	"github.com/karagenc/portal-go/transport/stream"
	"github.com/karagenc/portal-go/transport/websocket"
	"github.com/karagenc/portal-go/transport/webtransport"
	_webtransport "github.com/quic-go/webtransport-go"
	"github.com/spf13/pflag"
)

type options struct {
	URL         string
	Transports  []string
	Timeout     time.Duration
	Heartbeat   time.Duration
	NoReconnect bool
	Event       string
	Headers     []string
	Params      map[string]string
	Insecure    bool
	Verbose     bool
	Metrics     string
}

// fileConfig is the TOML form of options. Values it defines override the
// command line.
type fileConfig struct {
	URL         string            `toml:"url"`
	Transports  []string          `toml:"transports"`
	Timeout     string            `toml:"timeout"`
	Heartbeat   string            `toml:"heartbeat"`
	NoReconnect bool              `toml:"no_reconnect"`
	Event       string            `toml:"event"`
	Headers     map[string]string `toml:"headers"`
	Params      map[string]string `toml:"params"`
	Insecure    bool              `toml:"insecure"`
	Metrics     string            `toml:"metrics"`
}

var errNoURL = errors.New("no URL given")

func parseArgs(args []string) (*options, error) {
	o := new(options)
	fs := pflag.NewFlagSet("portalcat", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: portalcat [flags] URL")
		fs.PrintDefaults()
	}

	configFile := fs.StringP("config", "f", "", "TOML file to read options from")
	fs.StringSliceVarP(&o.Transports, "transports", "t", []string{portal.TransportWebSocket, portal.TransportHTTP}, "Candidate transports, in order")
	fs.DurationVar(&o.Timeout, "timeout", 10*time.Second, "Connect timeout")
	fs.DurationVar(&o.Heartbeat, "heartbeat", 0, "Heartbeat interval (0 disables it)")
	fs.BoolVar(&o.NoReconnect, "no-reconnect", false, "Don't reconnect after the connection is lost")
	fs.StringVarP(&o.Event, "event", "e", portal.EventMessage, "Event to send input lines with")
	fs.StringArrayVarP(&o.Headers, "header", "H", nil, `Request header as "Key: Value"`)
	fs.StringToStringVarP(&o.Params, "param", "p", nil, "Query parameter as key=value")
	fs.BoolVarP(&o.Insecure, "insecure", "k", false, "Skip TLS verification for WebTransport")
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "Print debug logs")
	fs.StringVar(&o.Metrics, "metrics", "", "Serve Prometheus metrics on this address")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.URL = fs.Arg(0)

	if *configFile != "" {
		if err := o.loadFile(*configFile); err != nil {
			return nil, err
		}
	}
	if o.URL == "" {
		return nil, errNoURL
	}
	return o, nil
}

func (o *options) loadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("url") {
		o.URL = strings.TrimSpace(raw.URL)
	}
	if meta.IsDefined("transports") {
		o.Transports = raw.Transports
	}
	if meta.IsDefined("timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		o.Timeout = d
	}
	if meta.IsDefined("heartbeat") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Heartbeat))
		if err != nil {
			return fmt.Errorf("parse heartbeat: %w", err)
		}
		o.Heartbeat = d
	}
	if meta.IsDefined("no_reconnect") {
		o.NoReconnect = raw.NoReconnect
	}
	if meta.IsDefined("event") {
		o.Event = strings.TrimSpace(raw.Event)
	}
	for key, value := range raw.Headers {
		o.Headers = append(o.Headers, key+": "+value)
	}
	if len(raw.Params) > 0 && o.Params == nil {
		o.Params = make(map[string]string, len(raw.Params))
	}
	for key, value := range raw.Params {
		o.Params[key] = value
	}
	if meta.IsDefined("insecure") {
		o.Insecure = raw.Insecure
	}
	if meta.IsDefined("metrics") {
		o.Metrics = strings.TrimSpace(raw.Metrics)
	}
	return nil
}

func (o *options) header() (http.Header, error) {
	header := make(http.Header)
	for _, h := range o.Headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header %q", h)
		}
		header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return header, nil
}

func (o *options) socketConfig() (*portal.Config, error) {
	header, err := o.header()
	if err != nil {
		return nil, err
	}

	httpOptions := httpbase.Options{Header: header}
	dialer := &_webtransport.Dialer{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: o.Insecure},
	}

	config := &portal.Config{
		Transports: o.Transports,
		Factories: map[string]transport.Factory{
			portal.TransportWebSocket: websocket.NewFactory(&websocket.Options{
				DialOptions: websocket.DialOptionsWithHeader(header),
			}),
			portal.TransportWebTransport: webtransport.NewFactory(&webtransport.Options{
				Dialer: dialer,
				Header: header,
			}),
			portal.TransportSSE:      stream.NewSSEFactory(&httpOptions),
			portal.TransportStream:   stream.NewFactory(&httpOptions),
			portal.TransportLongPoll: longpoll.NewFactory(&longpoll.Options{Options: httpOptions}),
		},
		Timeout:        o.Timeout,
		Heartbeat:      o.Heartbeat,
		NoReconnection: o.NoReconnect,
		Codec:          portal.NewJSONCodec(fast.New()),
	}
	if len(o.Params) > 0 {
		config.Params = o.Params
	}
	if o.Verbose {
		config.Debugger = portal.NewPrintDebugger()
	}
	return config, nil
}

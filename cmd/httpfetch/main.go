// Command httpfetch is a small integration smoke test for the client
// engine: it issues one request through netaccess.Manager (which
// drives httpclient.Client end to end) and prints the status, the
// response headers, and the body.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/wattclient/httpengine/pkg/httpengine/header"
	"github.com/wattclient/httpengine/pkg/httpengine/netaccess"
)

func main() {
	var (
		method  = flag.String("method", "GET", "HTTP method")
		body    = flag.String("body", "", "request body (POST/PUT only)")
		timeout = flag.Duration("timeout", 30*time.Second, "request timeout")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: httpfetch [flags] http://host[:port]/path")
		os.Exit(2)
	}
	rawURL := flag.Arg(0)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	mgr := netaccess.NewManager()
	defer mgr.Close()

	var reqHeaders header.Collection
	res, err := mgr.Do(ctx, *method, rawURL, reqHeaders, []byte(*body))
	if err != nil {
		slog.Error("httpfetch: request failed", "url", rawURL, "err", err)
		os.Exit(1)
	}

	fmt.Printf("%d\n", res.StatusCode)
	for _, h := range res.Headers {
		fmt.Printf("%s: %s\n", h.Name, h.Value)
	}
	if res.Location != "" {
		fmt.Printf("(Location: %s)\n", res.Location)
	}
	fmt.Println()
	os.Stdout.Write(res.Body)
	if len(res.Body) > 0 {
		fmt.Println()
	}
}

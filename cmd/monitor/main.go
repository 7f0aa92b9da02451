// Copyright (c) 2016 Bob Ziuchkovski
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Command monitor subscribes to one or more bxlog remote publishers and
// renders the records it receives to a file or stdout.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/relaycore/bxlog"
	"github.com/relaycore/bxlog/handler"
	"github.com/relaycore/bxlog/remote"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "print the version and exit")
	filterStr := fs.String("logfilters", ":output", "filter-set string controlling which received records are rendered")
	fs.StringVar(filterStr, "l", ":output", "shorthand for -logfilters")
	logfile := fs.String("logfile", "-", "file to render received records to; \"-\" or omitted means stdout")
	bind := fs.Bool("bind", false, "bind the given URLs instead of connecting to them")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: monitor [--version] [-l|--logfilters FILTERS] [--logfile FILE] [--bind] URL [URL...]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		fmt.Println(progname() + " " + version)
		return 0
	}

	urls := fs.Args()
	if len(urls) == 0 {
		fs.Usage()
		return 2
	}

	filters, err := bxlog.Parse(*filterStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", progname(), err)
		return 1
	}

	ctrl := &bxlog.Controller{}
	err = ctrl.Init(bxlog.Config{Handlers: []bxlog.HandlerConfig{
		{Name: "monitor-file", Handler: handler.File{Path: *logfile}.New(), Filters: filters},
	}})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", progname(), err)
		return 1
	}
	defer ctrl.Finalize(true)

	receiver := &remote.Receiver{}
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		receiver.Stop()
	}()

	if err := receiver.Recv(urls, *bind); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", progname(), err)
		return 1
	}
	return 0
}

// progname returns the PROGNAME environment override if set, falling
// back to argv[0]'s base name.
func progname() string {
	if name := os.Getenv("PROGNAME"); name != "" {
		return name
	}
	return filepath.Base(os.Args[0])
}

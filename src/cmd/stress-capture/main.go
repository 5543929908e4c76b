package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"win-dialog-shot/src/singleinstance"
)

type stressOptions struct {
	n        int
	deadline time.Duration
}

type tally struct {
	ok, busy, err int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-capture",
		Short:         "Fire concurrent run-once capture requests at a resident instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := singleinstance.FindResident(cmd.Context()); !ok {
				return errors.New("no resident instance is listening")
			}
			t := stress(*opts, singleinstance.NewClient)
			report(cmd.OutOrStdout(), opts.n, t)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 15*time.Second, "per-client timeout")

	return cmd
}

// stress launches opts.n clients at once. Only one can win the resident's
// capture slot; the rest should come back busy.
func stress(opts stressOptions, newClient func() singleinstance.Client) tally {
	var wg sync.WaitGroup
	var t tally

	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := newClient().TryRunOnce(ctx)
			switch {
			case errors.Is(err, singleinstance.ErrBusy):
				atomic.AddInt32(&t.busy, 1)
			case err != nil, !delegated:
				atomic.AddInt32(&t.err, 1)
			default:
				atomic.AddInt32(&t.ok, 1)
			}
		}()
	}
	wg.Wait()
	return t
}

func report(w io.Writer, n int, t tally) {
	fmt.Fprintf(w, "launched=%d ok=%d busy=%d err=%d\n", n, t.ok, t.busy, t.err)
}

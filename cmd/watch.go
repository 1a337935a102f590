package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"lovmig/cli/internal/auth"
	"lovmig/cli/internal/client"
	"lovmig/cli/internal/journal"
	"lovmig/cli/internal/session"
)

// defaultJournal is the --journal value given without an argument.
const defaultJournal = "default"

var watchJournal string

// watchCmd keeps the session fresh and prints every auth-state change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the session fresh and print auth state changes",
	Long: `The watch command stays in the foreground, refreshes the session before it
expires and prints every change of auth state. Edits to the endpoint override
(for example 'lovmig config set' in another terminal) are picked up live.

With --journal every auth event is also recorded: without a value to
events.jsonl in the state directory, or to the given file or postgres:// DSN.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var queue *journal.Queue
		if watchJournal != "" {
			target := watchJournal
			if target == defaultJournal {
				target = ""
			}
			sink, err := journal.Open(ctx, target)
			if err != nil {
				return err
			}
			defer sink.Close()
			queue = journal.NewQueue(sink, 64)
		}

		s, err := session.New(a.holder.Current(), a.sessionOptions()...)
		if err != nil {
			return err
		}
		defer s.Close()
		defer s.Watch(printState)()

		b := &watchBinding{ctx: ctx, queue: queue}
		b.attach(a.holder.Current())
		defer b.detach()
		defer a.holder.OnReplace(func(c *auth.Client) {
			pterm.Info.Printfln("Endpoint changed, now using %s", c.URL())
			b.attach(c)
			if err := s.Rebind(ctx, c); err != nil {
				log.Warnf("rebind session: %v", err)
			}
		})()

		if err := s.Start(ctx); err != nil {
			return err
		}
		pterm.Info.Println("Watching auth state. Press Ctrl+C to stop.")

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return client.WatchOverride(gctx, a.store.Path(), a.holder)
		})
		if queue != nil {
			g.Go(func() error { return queue.Run(gctx) })
		}
		return g.Wait()
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchJournal, "journal", "", "Record auth events to a file or postgres:// DSN")
	watchCmd.Flags().Lookup("journal").NoOptDefVal = defaultJournal
	rootCmd.AddCommand(watchCmd)
}

// watchBinding keeps auto refresh and the journal listener attached to the
// client currently in use.
type watchBinding struct {
	ctx   context.Context
	queue *journal.Queue

	mu     sync.Mutex
	client *auth.Client
	sub    auth.Subscription
}

func (b *watchBinding) attach(c *auth.Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detachLocked()
	b.client = c
	if b.queue != nil {
		b.sub = c.OnAuthStateChange(b.queue.Listener(c.URL()))
	}
	c.StartAutoRefresh(b.ctx)
}

func (b *watchBinding) detach() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detachLocked()
}

func (b *watchBinding) detachLocked() {
	if b.sub != nil {
		b.sub.Unsubscribe()
		b.sub = nil
	}
	if b.client != nil {
		b.client.StopAutoRefresh()
		b.client = nil
	}
}

func printState(st session.State) {
	ts := time.Now().Format("15:04:05")
	switch st.Phase {
	case session.Authenticated:
		pterm.Success.Printfln("%s  signed in as %s", ts, identity(st.User))
	case session.Unauthenticated:
		pterm.Info.Printfln("%s  signed out", ts)
	}
}

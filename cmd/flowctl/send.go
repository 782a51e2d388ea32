package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nmxmxh/flowmesh/kernel/env"
	"github.com/nmxmxh/flowmesh/kernel/flowerr"
	"github.com/nmxmxh/flowmesh/kernel/msg"
	"github.com/nmxmxh/flowmesh/kernel/scheduler"
	"github.com/nmxmxh/flowmesh/kernel/schemastore"
	"github.com/nmxmxh/flowmesh/kernel/sendpath"
	"github.com/nmxmxh/flowmesh/kernel/value"
)

func newSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <manifest.json> <cmd-name> <props.json>",
		Short: "Build an in-process extension/env pair and send one command through the real scheduler and Send Path",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			manifestRaw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			cmdName := args[1]
			propsRaw, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("read properties: %w", err)
			}

			store := schemastore.New()
			if err := schemastore.SetSchemaDefinitionFromManifest(store, manifestRaw); err != nil {
				return fmt.Errorf("load manifest: %w", err)
			}

			props, ferr := value.FromJSON(propsRaw)
			if ferr != nil {
				return fmt.Errorf("parse properties: %w", ferr)
			}
			if !props.IsObject() {
				return fmt.Errorf("properties document must be a JSON object")
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "flowctl.send")

			// ext is the real scheduler.Owner: Dispatch applies the
			// manifest's cmd_in schema to the outgoing command itself
			// (spec §4.7), the same check any other extension's
			// dispatch gets, not a parallel, CLI-only shortcut.
			router := &loopbackRouter{store: store, logger: logger}
			ext := scheduler.NewOwner(env.OwnerExtension, "flowctl-client", router)
			ext.SetSchemaStore(store)
			if err := ext.Start(context.Background()); err != nil {
				return fmt.Errorf("start extension: %w", err)
			}
			defer ext.Stop()

			sp := sendpath.New(ext, logger)
			router.sp = sp

			m, cerr := msg.Create(msg.TypeCmd, cmdName)
			if cerr != nil {
				return fmt.Errorf("create command: %w", cerr)
			}
			// No child extension is registered in this single-process
			// demo, so ext.Dispatch always falls through to
			// router.Route — the same path an unresolved-locally
			// destination takes in a real dispatch tree.
			m.SetDest(msg.Loc{Extension: "loopback"})
			entries, _ := props.PeekObject()
			for _, e := range entries {
				child, cloneErr := e.Val.Clone()
				if cloneErr != nil {
					return fmt.Errorf("clone property %q: %w", e.Key, cloneErr)
				}
				if cerr := m.SetProperty(e.Key, child); cerr != nil {
					return fmt.Errorf("set property %q: %w", e.Key, cerr)
				}
			}

			resultCh := make(chan *msg.Msg, 1)
			if ferr := sp.Send(context.Background(), m, func(result *msg.Msg) {
				resultCh <- result
			}, false); ferr != nil {
				return fmt.Errorf("send: %w", ferr)
			}

			result := <-resultCh
			raw, rerr := result.Properties().ToJSON()
			if rerr != nil {
				return fmt.Errorf("encode result: %w", rerr)
			}
			fmt.Printf("status=%d completed=%v properties=%s\n", result.StatusCode(), result.IsCompleted(), raw)
			return nil
		},
	}
}

// loopbackRouter is ext's Router for this single-process demo: with no
// real destination extension to forward to, it stands in for "the
// command reached its destination and completed" — it validates the
// synthetic reply against the manifest's own cmd_in result schema
// before delivering it back through the Send Path's correlation
// tracker, the same schemastore.ApplyResult call a real dispatch tree
// would apply once an actual destination extension replied.
type loopbackRouter struct {
	store  *schemastore.Store
	logger *slog.Logger
	sp     *sendpath.SendPath
}

func (r *loopbackRouter) Route(_ context.Context, _ *scheduler.Owner, m *msg.Msg) *flowerr.Error {
	result := msg.CreateEmpty(msg.TypeCmdResult)
	result.SetCmdID(m.CmdID())
	result.SetStatusCode(msg.StatusOK)
	result.SetIsCompleted(true)

	if err := r.store.ApplyResult(schemastore.CmdIn, m.Name(), result); err != nil {
		r.logger.Warn("loopback result failed its own schema", "name", m.Name(), "error", err.Error())
	}

	r.sp.DeliverResult(result)
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/Handoff/internal/app/delivery"
	"github.com/dkeye/Handoff/internal/client"
	"github.com/dkeye/Handoff/internal/domain"
	"github.com/dkeye/Handoff/internal/protocol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagURL       string
	flagCode      string
	flagRoom      int64
	flagHeartbeat time.Duration
)

var sendCmd = &cobra.Command{
	Use:     "send <payload>",
	Aliases: []string{"s"},
	Short:   "Join as sender and hand a payload to the receiver",
	Long: `Join the room of a permit, wait for the receiver and send one payload.

Examples:
  handoff send --code ROOM42 "https://example.com/redeem/abc"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagCode == "" {
			return errors.New("--code is required")
		}
		return runSender(cmd.Context(), cmd, args[0])
	},
}

var receiveCmd = &cobra.Command{
	Use:     "receive",
	Aliases: []string{"r"},
	Short:   "Join a room as receiver and print the payload",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagRoom <= 0 {
			return errors.New("--room is required")
		}
		return runReceiver(cmd.Context(), cmd, domain.RoomID(flagRoom))
	},
}

func init() {
	for _, c := range []*cobra.Command{sendCmd, receiveCmd} {
		c.Flags().StringVar(&flagURL, "url", "ws://localhost:8080/api/ws/signal", "signal endpoint")
		c.Flags().DurationVar(&flagHeartbeat, "heartbeat", 20*time.Second, "heartbeat interval")
	}
	sendCmd.Flags().StringVar(&flagCode, "code", "", "permit code")
	receiveCmd.Flags().Int64Var(&flagRoom, "room", 0, "room id from the link")
}

func heartbeat(ctx context.Context, c *client.Client) {
	go func() {
		if err := c.RunHeartbeat(ctx, flagHeartbeat, delivery.NewEmitter(client.HeartbeatPolicy)); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn().Err(err).Str("module", "cmd").Msg("heartbeat stopped")
		}
	}()
}

// waitFor blocks until the named event arrives or the connection ends.
func waitFor(ctx context.Context, c *client.Client, names ...string) (client.Event, error) {
	for {
		select {
		case <-ctx.Done():
			return client.Event{}, ctx.Err()
		case ev, ok := <-c.Events():
			if !ok {
				return client.Event{}, domain.ErrConnectionClosed
			}
			if ev.Name == protocol.EventRoomExpired {
				return ev, errors.New("room expired")
			}
			for _, n := range names {
				if ev.Name == n {
					return ev, nil
				}
			}
		}
	}
}

func runSender(ctx context.Context, cmd *cobra.Command, payload string) error {
	c, err := client.Dial(ctx, client.Config{URL: flagURL, Token: flagCode})
	if err != nil {
		return err
	}
	defer c.Close()

	ack, err := c.SenderJoin(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("module", "cmd").Stringer("room", ack.RoomID).Int("used", ack.Used).Int("total", ack.Total).Msg("joined as sender")
	fmt.Fprintf(cmd.OutOrStdout(), "share room %d with the receiver\n", ack.RoomID)
	heartbeat(ctx, c)

	if _, err := c.Ready(ctx, true); err != nil {
		return err
	}
	if !ack.Online {
		if _, err := waitFor(ctx, c, protocol.EventReceiverJoin); err != nil {
			return err
		}
	}

	sent, err := c.Send(ctx, payload)
	if err != nil {
		return err
	}
	log.Info().Str("module", "cmd").Int("used", sent.Used).Int("total", sent.Total).Msg("payload delivered")

	ev, err := waitFor(ctx, c, protocol.EventReceiverSuccess)
	if err != nil {
		return err
	}
	var notice protocol.SettleNotice
	if err := json.Unmarshal(ev.Data, &notice); err != nil {
		return fmt.Errorf("decode settle notice: %w", err)
	}
	if !notice.Success {
		return errors.New("receiver reported failure")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "redeemed, %d/%d used\n", notice.Used, sent.Total)
	return nil
}

func runReceiver(ctx context.Context, cmd *cobra.Command, room domain.RoomID) error {
	c, err := client.Dial(ctx, client.Config{URL: flagURL, Token: "receiver", RoomID: room})
	if err != nil {
		return err
	}
	defer c.Close()

	ack, err := c.ReceiverJoin(ctx)
	if err != nil {
		return err
	}
	heartbeat(ctx, c)

	payload := ack.Payload
	if payload == "" {
		if ack.Expired {
			log.Info().Str("module", "cmd").Msg("previous payload expired, waiting for a new one")
		}
		if _, err := c.Ready(ctx, true); err != nil {
			return err
		}
		ev, err := waitFor(ctx, c, protocol.EventAdminSend)
		if err != nil {
			return err
		}
		var d protocol.Delivery
		if err := json.Unmarshal(ev.Data, &d); err != nil {
			return fmt.Errorf("decode delivery: %w", err)
		}
		payload = d.Payload
	}
	fmt.Fprintln(cmd.OutOrStdout(), payload)

	settled, err := c.Settle(ctx, true)
	if err != nil {
		return err
	}
	log.Info().Str("module", "cmd").Int("used", settled.Used).Bool("committed", settled.Committed).Msg("settled")
	return nil
}

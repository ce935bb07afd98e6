package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/orderflow/internal/orderflow"
	"github.com/appetiteclub/orderflow/pkg/enums/bucket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// Watch prints board updates from a running service until ctx ends. An
// optional first argument narrows the stream to one bucket.
func Watch(ctx context.Context, config *apt.Config, logger apt.Logger, args []string, out io.Writer) error {
	bucketName := ""
	if len(args) > 0 {
		bucketName = args[0]
		if bucket.ByName(bucketName) == nil {
			return fmt.Errorf("unknown bucket %q", bucketName)
		}
	}

	addr := config.GetStringOrDef("grpc.addr", "localhost:50051")
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	watch, err := orderflow.NewBoardClient(conn).Watch(ctx, bucketName)
	if err != nil {
		return err
	}

	logger.Info("Watching order board", "addr", addr, "bucket", bucketName)

	for {
		update, err := watch.Recv()
		if errors.Is(err, io.EOF) || status.Code(err) == codes.Canceled {
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, FormatUpdate(update))
	}
}

// FormatUpdate renders one board update as a single line.
func FormatUpdate(u orderflow.BoardUpdate) string {
	kind := u.EventType[strings.LastIndex(u.EventType, ".")+1:]

	state := u.Order.State.String()
	if u.PreviousState != "" && u.PreviousState != u.Order.State {
		state = u.PreviousState.String() + " -> " + state
	}

	return fmt.Sprintf("%-12s %s  %-8s %s [%s]",
		kind, u.Order.ID, u.Order.Channel, state, strings.Join(u.Order.Items, ", "))
}

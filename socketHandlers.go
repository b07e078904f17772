package main

import (
	"context"
	"log/slog"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"

	"shm-monitor/db"
	"shm-monitor/ingest"
	"shm-monitor/model"
	"shm-monitor/stream"
	"shm-monitor/utils"
)

type socketController struct {
	evaluator *stream.Evaluator
	store     db.EventStore
	runID     string
	baseline  model.Report
}

func newSocketController(evaluator *stream.Evaluator, store db.EventStore, runID string) *socketController {
	return &socketController{evaluator: evaluator, store: store, runID: runID}
}

func (c *socketController) emitSummary(socket socketio.Conn) {
	socket.Emit("summary", c.evaluator.Summary())
}

func (c *socketController) handleRequestSummary(socket socketio.Conn) {
	c.emitSummary(socket)
}

func (c *socketController) handleRequestTrend(socket socketio.Conn) {
	socket.Emit("accuracyTrend", c.evaluator.Trend())
}

func (c *socketController) handleRequestBaseline(socket socketio.Conn) {
	socket.Emit("baselineReport", c.baseline)
}

// handleNewWindow processes one window submitted by a connected client. The
// payload shares the wire format of the MQTT collector.
func (c *socketController) handleNewWindow(socket socketio.Conn, msg string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	payload, err := ingest.DecodePayload([]byte(msg))
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse window payload", slog.Any("error", err))
		socket.Emit("windowError", map[string]string{"message": "invalid window payload"})
		return
	}

	oracle := stream.OracleFunc(func([]float64) (int, error) {
		if payload.Label == nil {
			return 0, xerrors.New("gated window submitted without a label")
		}
		return *payload.Label, nil
	})

	record, err := c.evaluator.Process(payload.Samples, oracle)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to process window",
			slog.String("socketID", socket.ID()),
			slog.String("sensorID", payload.SensorID),
			slog.Any("error", err))
		socket.Emit("windowError", map[string]string{"message": "window rejected"})
		return
	}

	logger.InfoContext(ctx, "window processed",
		slog.String("socketID", socket.ID()),
		slog.String("sensorID", payload.SensorID),
		slog.Int("seq", record.Seq),
		slog.Float64("rms", record.RMS),
		slog.String("predicted", record.Predicted))

	socket.Emit("eventRecord", record)
	if record.Scored {
		if point, ok := c.evaluator.PointForSeq(record.Seq); ok {
			socket.Emit("accuracyPoint", point)
		}
	}
	socket.Emit("summary", c.evaluator.Summary())

	c.persist(record)
}

func (c *socketController) persist(record stream.EventRecord) {
	if c.store == nil {
		return
	}
	logger := utils.GetLogger()
	if err := c.store.StoreEvent(c.runID, record); err != nil {
		logger.Error("failed to persist event", slog.Any("error", xerrors.New(err)))
	}
	if !record.Scored {
		return
	}
	point, ok := c.evaluator.PointForSeq(record.Seq)
	if !ok {
		return
	}
	if err := c.store.StoreAccuracyPoint(c.runID, point); err != nil {
		logger.Error("failed to persist accuracy point", slog.Any("error", xerrors.New(err)))
	}
}

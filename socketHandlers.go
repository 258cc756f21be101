package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"time"

	"crimewatch/chat"
	"crimewatch/models"
	"crimewatch/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

type socketController struct {
	service *predictionService
	advisor *chat.GeminiClient
}

func newSocketController(service *predictionService, advisor *chat.GeminiClient) *socketController {
	return &socketController{service: service, advisor: advisor}
}

func (c *socketController) emitModelInfo(socket socketio.Conn) {
	stats := c.service.model.Stats()
	socket.Emit("modelInfo", stats)
}

func (c *socketController) handleRequestModelInfo(socket socketio.Conn) {
	c.emitModelInfo(socket)
}

func (c *socketController) handlePredictRequest(socket socketio.Conn, requestData string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	log.Printf("[handlePredictRequest] Starting for socket %s, data length: %d\n", socket.ID(), len(requestData))
	logger.InfoContext(ctx, "handlePredictRequest called",
		slog.String("socketID", socket.ID()),
		slog.Int("dataLength", len(requestData)),
	)

	if requestData == "" {
		logger.ErrorContext(ctx, "no data received in predictRequest event")
		socket.Emit("predictionError", map[string]string{"message": "no request data received"})
		return
	}

	var req models.PredictRequest
	if err := json.Unmarshal([]byte(requestData), &req); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse predict payload", slog.Any("error", err))
		socket.Emit("predictionError", map[string]string{"message": "invalid request payload"})
		return
	}

	logger.InfoContext(ctx, "received prediction request",
		slog.String("socketID", socket.ID()),
		slog.String("location", req.Location),
		slog.String("lga", req.LGA),
		slog.String("weather", req.Weather),
		slog.String("dateTime", req.DateTime),
	)

	started := time.Now()

	summary, err := c.service.predict(req)
	if err != nil {
		err := xerrors.New(err)
		log.Printf("[handlePredictRequest] Prediction error for socket %s: %v\n", socket.ID(), err)
		logger.ErrorContext(ctx, "failed to run prediction", slog.Any("error", err))
		socket.Emit("predictionError", map[string]string{"message": "prediction error"})
		return
	}

	log.Printf("[handlePredictRequest] Prediction complete for socket %s: crimeType=%s, confidence=%.3f\n",
		socket.ID(), summary.CrimeType, summary.Confidence)
	logger.InfoContext(ctx, "prediction complete",
		slog.String("socketID", socket.ID()),
		slog.Float64("latency_ms", time.Since(started).Seconds()*1000),
		slog.String("crimeType", summary.CrimeType),
		slog.String("lga", summary.LGA),
		slog.String("timePeriod", summary.TimePeriod),
		slog.Float64("confidence", summary.Confidence),
	)

	socket.Emit("prediction", summary)
	logger.InfoContext(ctx, "successfully emitted prediction result",
		slog.String("socketID", socket.ID()),
	)
}

// adviceRequest carries a question (or a prediction context) for the safety
// advisor.
type adviceRequest struct {
	Message    string  `json:"message"`
	CrimeType  string  `json:"crimeType,omitempty"`
	LGA        string  `json:"lga,omitempty"`
	TimePeriod string  `json:"timePeriod,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (c *socketController) handleAdviceRequest(socket socketio.Conn, requestData string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	if c.advisor == nil {
		socket.Emit("adviceError", map[string]string{"message": "safety advisor is not configured"})
		return
	}

	var req adviceRequest
	if err := json.Unmarshal([]byte(requestData), &req); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse advice payload", slog.Any("error", err))
		socket.Emit("adviceError", map[string]string{"message": "invalid request payload"})
		return
	}

	var answer string
	var err error
	if req.Message != "" {
		answer, err = c.advisor.GenerateResponse(req.Message)
	} else if req.CrimeType != "" {
		answer, err = c.advisor.AdviseOnPrediction(req.CrimeType, req.LGA, req.TimePeriod, req.Confidence)
	} else {
		socket.Emit("adviceError", map[string]string{"message": "empty advice request"})
		return
	}
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "advisor request failed", slog.Any("error", err))
		socket.Emit("adviceError", map[string]string{"message": "advisor unavailable"})
		return
	}

	socket.Emit("advice", map[string]string{"message": answer})
}

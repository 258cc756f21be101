package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"crimewatch/chat"
	"crimewatch/crime"
	"crimewatch/db"
	"crimewatch/geocode"
	"crimewatch/models"
	"crimewatch/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
)

type apiError struct {
	Message string `json:"message"`
}

type modelInfoResponse struct {
	Stats      crime.ModelStats      `json:"stats"`
	Importance []crime.FeatureWeight `json:"importance"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

func newPredictHandler(service *predictionService) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req models.PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.ErrorContext(ctx, "failed to parse request body", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		log.Printf("[HTTP] Prediction request: location=%q, lga=%q, weather=%q, dateTime=%q\n",
			req.Location, req.LGA, req.Weather, req.DateTime)

		summary, err := service.predict(req)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "failed to run prediction", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "prediction error")
			return
		}

		log.Printf("[HTTP] Prediction complete: crimeType=%s, confidence=%.3f, latency=%.2fms\n",
			summary.CrimeType, summary.Confidence, summary.LatencyMs)
		writeJSON(w, http.StatusOK, summary)
	}
}

func newPredictionsHandler(service *predictionService) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		var records []models.PredictionRecord
		var err error
		if lga := strings.TrimSpace(r.URL.Query().Get("lga")); lga != "" && service.store != nil {
			records, err = service.store.GetPredictionsByArea(lga, limit)
		} else {
			records, err = service.recentPredictions(limit)
		}
		if err != nil {
			logger.ErrorContext(ctx, "failed to load predictions", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load predictions")
			return
		}

		writeJSON(w, http.StatusOK, records)
	}
}

func newModelInfoHandler(model *crime.Model) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		writeJSON(w, http.StatusOK, modelInfoResponse{
			Stats:      model.Stats(),
			Importance: model.FeatureImportance(),
		})
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	modelPath := utils.GetEnv("CRIME_MODEL_PATH", "storage/crime_model.json")
	model, err := crime.LoadModel(modelPath)
	if err != nil {
		log.Fatalf("failed to load crime model: %v", err)
	}

	stats := model.Stats()
	log.Printf("Loaded model: %d trees, %d features, %d crime types, trained %s",
		stats.TreeCount, stats.FeatureCount, stats.LabelCount, stats.TrainedAt.Format(time.RFC3339))

	var geocoder *geocode.NominatimClient
	if strings.EqualFold(utils.GetEnv("GEOCODING_ENABLED", "true"), "true") {
		geocoder = geocode.NewNominatimClient(utils.GetEnv("GEOCODING_SERVICE_URL", ""))
	}

	store, err := db.NewDBClient()
	if err != nil {
		log.Printf("Failed to connect prediction store, falling back to file storage: %v\n", err)
		store = nil
	} else {
		defer store.Close()
	}

	var advisor *chat.GeminiClient
	if advisorClient, chatErr := chat.NewGeminiClient(); chatErr != nil {
		log.Printf("Safety advisor disabled: %v\n", chatErr)
	} else {
		advisor = advisorClient
		defer advisor.Close()
	}

	service := newPredictionService(model, geocoder, store)
	controller := newSocketController(service, advisor)

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		connURL := socket.URL()
		log.Printf("CONNECTED: %s, transport: %s, remote addr: %s\n", socket.ID(), connURL.String(), socket.RemoteAddr())
		controller.emitModelInfo(socket)
		return nil
	})

	server.OnEvent("/", "requestModelInfo", func(socket socketio.Conn) {
		log.Printf("requestModelInfo received from %s\n", socket.ID())
		controller.handleRequestModelInfo(socket)
	})

	server.OnEvent("/", "predictRequest", func(socket socketio.Conn, msg string) {
		log.Printf("=== predictRequest event received from %s, data length: %d ===\n", socket.ID(), len(msg))
		// Run handler in goroutine to prevent blocking, with panic recovery
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in handlePredictRequest for socket %s: %v\n", socket.ID(), r)
					socket.Emit("predictionError", map[string]string{"message": "internal server error during processing"})
				}
			}()
			controller.handlePredictRequest(socket, msg)
		}()
	})

	server.OnEvent("/", "adviceRequest", func(socket socketio.Conn, msg string) {
		log.Printf("adviceRequest received from %s\n", socket.ID())
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in handleAdviceRequest for socket %s: %v\n", socket.ID(), r)
					socket.Emit("adviceError", map[string]string{"message": "internal server error during processing"})
				}
			}()
			controller.handleAdviceRequest(socket, msg)
		}()
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := protocol == "https"

	predictHandler := newPredictHandler(service)
	predictionsHandler := newPredictionsHandler(service)
	modelInfoHandler := newModelInfoHandler(model)
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/predict", predictHandler)
	mux.HandleFunc("/api/predictions", predictionsHandler)
	mux.HandleFunc("/api/model", modelInfoHandler)
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, serveHTTPS, port, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		cert_key := utils.GetEnv("CERT_KEY", "")
		cert_file := utils.GetEnv("CERT_FILE", "")
		if cert_key == "" || cert_file == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(cert_file, cert_key); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}

package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/pkalmar/ember/internal/auth"
	"github.com/pkalmar/ember/internal/handlers"
	"github.com/pkalmar/ember/internal/matching"
	"github.com/pkalmar/ember/internal/middleware"
	"github.com/pkalmar/ember/internal/store/sqlstore"
	"github.com/pkalmar/ember/internal/ws"
)

var (
	addr   = flag.String("addr", ":8080", "http service address")
	driver = flag.String("db-driver", "sqlite3", "database driver (sqlite3 or postgres)")
	dsn    = flag.String("db-dsn", "ember.db", "database connection string")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	listenAddr := *addr
	if port := os.Getenv("PORT"); port != "" {
		listenAddr = ":" + port
	}

	secret := os.Getenv("EMBER_JWT_SECRET")
	if secret == "" {
		log.Fatal("EMBER_JWT_SECRET must be set")
	}

	// Initialize Database
	store, err := sqlstore.New(*driver, *dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	tokens := auth.NewTokenManager(secret, 24*time.Hour)
	engine := matching.NewEngine(store)

	// Initialize WebSocket Hub
	hub := ws.NewHub(store)
	go hub.Run()

	// Initialize Handlers
	swipeHandler := &handlers.SwipeHandler{Engine: engine}
	matchHandler := &handlers.MatchHandler{Store: store}
	wsHandler := &handlers.WebSocketHandler{Hub: hub, Tokens: tokens}

	authed := middleware.Auth(tokens)
	swipeLimiter := middleware.NewLimiterStore(120, 20, 5*time.Minute)
	defer swipeLimiter.Stop()
	limited := middleware.RateLimit(swipeLimiter)

	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	// API Endpoints
	r.Handle("/swipe", authed(limited(http.HandlerFunc(swipeHandler.Swipe)))).Methods("POST")
	r.Handle("/matches", authed(http.HandlerFunc(matchHandler.GetMatches))).Methods("GET")
	r.Handle("/matches/{id}/messages", authed(http.HandlerFunc(matchHandler.GetMatchMessages))).Methods("GET")

	// WebSocket Endpoint
	r.HandleFunc("/ws", wsHandler.Serve)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	log.Println("Starting server on", listenAddr)
	log.Fatal(http.ListenAndServe(listenAddr, corsHandler))
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

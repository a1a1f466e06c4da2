package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mzhao/parley/internal/auth"
	"github.com/mzhao/parley/internal/handlers"
	"github.com/mzhao/parley/internal/middleware"
	"github.com/mzhao/parley/internal/service"
	"github.com/mzhao/parley/internal/store"
	"github.com/mzhao/parley/internal/store/boltstore"
	"github.com/mzhao/parley/internal/store/sqlstore"
	"github.com/mzhao/parley/internal/ws"
)

var (
	addr    = flag.String("addr", ":8080", "http service address")
	backend = flag.String("store", "bolt", "store backend: bolt or sqlite")
	dbPath  = flag.String("db", "parley.db", "store database path")
	delay   = flag.Duration("notify-delay", 100*time.Millisecond, "simulated notification latency")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		st  store.Store
		err error
	)
	switch *backend {
	case "bolt":
		st, err = boltstore.New(*dbPath)
	case "sqlite":
		st, err = sqlstore.New("sqlite3", *dbPath)
	default:
		log.Fatalf("unknown store backend %q", *backend)
	}
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	// Services are explicit instances; nothing here is a package-level
	// singleton.
	authSvc := service.NewAuthService(st)
	msgSvc := service.NewMessageService(st, service.NewNotifier(*delay))

	hub := ws.NewHub(msgSvc)
	go hub.Run()

	signer := auth.NewCookieSigner()
	authHandler := &handlers.AuthHandler{Auth: authSvc, Signer: signer}
	chatHandler := &handlers.ChatHandler{Messages: msgSvc}

	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	r.HandleFunc("/users", authHandler.GetUsers).Methods("GET")
	r.HandleFunc("/users/recent", authHandler.GetRecentUsers).Methods("GET")

	requireAuth := middleware.Auth(signer)
	chats := r.PathPrefix("/chats").Subrouter()
	chats.Use(requireAuth)
	chats.HandleFunc("", chatHandler.CreateChat).Methods("POST")
	chats.HandleFunc("", chatHandler.GetChats).Methods("GET")
	chats.HandleFunc("/{id}", chatHandler.DeleteChat).Methods("DELETE")
	chats.HandleFunc("/{id}/messages", chatHandler.GetChatMessages).Methods("GET")
	chats.HandleFunc("/{id}/messages", chatHandler.SendMessage).Methods("POST")
	chats.HandleFunc("/{id}/read", chatHandler.MarkRead).Methods("POST")

	upload := requireAuth(http.HandlerFunc(chatHandler.Upload))
	r.Handle("/upload", upload).Methods("POST")

	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(middleware.CookieName)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		userID, err := signer.Verify(cookie.Value)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ws.ServeWs(hub, w, r, userID)
	})

	log.Println("Starting server on", *addr)
	log.Fatal(http.ListenAndServe(*addr, r))
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

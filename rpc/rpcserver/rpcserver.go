package rpcserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cfit-project/cfit-ledger/config"
	"github.com/cfit-project/cfit-ledger/logger"
	"github.com/cfit-project/cfit-ledger/util/ratelimit"
)

var Log = logger.DiscardLog

type Server struct {
	handlers map[string]Handler
	config   Config

	limit *ratelimit.Limit
}
type Handler = func(c *Context)

type Config struct {
	// When true, the RPC server will block CORS requests from foreign origins.
	Restricted bool

	// The username:password used in Basic Auth. Leave blank to disable authentication.
	Authentication string

	// The maximum number of requests per minute from a single IP address. Default is 500.
	RateLimit int
}

func New(config Config) *Server {
	if config.RateLimit == 0 {
		config.RateLimit = 500
	}

	return &Server{
		handlers: make(map[string]Handler),
		config:   config,
		limit:    ratelimit.New(config.RateLimit),
	}
}

// Handle registers f for method. Method names are case-insensitive and stored lower-case.
func (s *Server) Handle(method string, f Handler) {
	s.handlers[strings.ToLower(method)] = f
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := s.handler(w, r)
	if err != nil {
		Log.Debugf("rpc request from %s: %v", r.RemoteAddr, err)
	}
}

// Start serves the RPC on bind in a new goroutine. The returned server can be used to shut it down.
func (s *Server) Start(bind string) *http.Server {
	httpSrv := &http.Server{
		Addr:        bind,
		Handler:     s,
		ReadTimeout: config.RPC_READ_TIMEOUT,
	}

	go func() {
		Log.Infof("RPC server listening on %s", bind)
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			Log.Err("RPC server stopped:", err)
		}
	}()

	return httpSrv
}

// Prune drops idle rate limit entries
func (s *Server) Prune() {
	s.limit.Prune()
}

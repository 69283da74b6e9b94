// Package app wires components A-M into one running process and owns
// their lifecycle, the same container-then-Run split the teacher's
// per-service app packages (game/app/app.go, core/container) use.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"mahjongserver/common/config"
	"mahjongserver/common/database"
	"mahjongserver/common/log"
	"mahjongserver/internal/eventrouter"
	"mahjongserver/internal/gameservice"
	"mahjongserver/internal/gametimer"
	"mahjongserver/internal/httpapi"
	"mahjongserver/internal/mahjong"
	"mahjongserver/internal/msgrouter"
	"mahjongserver/internal/replay"
	"mahjongserver/internal/room"
	"mahjongserver/internal/session"
	"mahjongserver/internal/storage"
	"mahjongserver/internal/ticket"
	"mahjongserver/internal/wsconn"
)

// Container owns every long-lived collaborator and the two listeners
// (HTTP API, websocket) built on top of them.
type Container struct {
	Hub        *wsconn.Hub
	Router     *msgrouter.Router
	Rooms      *room.Manager
	Sessions   *session.Store
	Games      *gameservice.Service
	Collector  *replay.Collector
	Replays    *storage.FileReplayStore
	GameIndex  storage.GameRecordRepository
	Timers     *gametimer.Manager
	HTTP       *httpapi.Server
	wsServer   *http.Server
	mongo      *storage.MongoManager
	redis      *database.RedisManager

	mu       sync.Mutex
	closed   bool
	startsMu sync.Mutex
	starts   map[string]gameStartMeta
}

// gameStartMeta is what NewContainer's GameLifecycle.OnStart hook records
// for the OnEnd closure to fill in the record it saves; OnEnd only
// receives the game id and its final scores, never the seed or player
// names the record needs alongside them.
type gameStartMeta struct {
	playerNames [4]string
	seed        string
	rngVersion  string
	startedAt   time.Time
}

// NewContainer builds the full dependency graph from cfg without
// starting any network listener.
func NewContainer(cfg *config.Config) (*Container, error) {
	settings := mahjong.DefaultSettings()

	storageDir := cfg.Storage.Dir
	if storageDir == "" {
		storageDir = "./data"
	}
	replayStore := storage.NewFileReplayStore(storageDir)

	var gameIndex storage.GameRecordRepository
	var mongoMgr *storage.MongoManager
	switch cfg.Storage.Backend {
	case "mongo":
		m, err := storage.NewMongoManager(cfg.Database.MongoConf.Url, cfg.Database.MongoConf.Db)
		if err != nil {
			return nil, fmt.Errorf("app: connecting to mongo: %w", err)
		}
		mongoMgr = m
		gameIndex = storage.NewMongoGameRecordRepository(m)
	default:
		gameIndex = storage.NewFileGameRecordRepository(storageDir)
	}

	var redisMgr *database.RedisManager
	if cfg.Database.RedisConf.Addr != "" || cfg.Database.RedisConf.Host != "" {
		redisMgr = database.NewRedis(cfg.Database.RedisConf)
	}

	collector := replay.NewCollector()
	hub := wsconn.NewHub(nil)
	dispatcher := replay.RecordingDispatcher{Inner: hub, Collector: collector}
	timers := gametimer.NewManager()
	games := gameservice.NewService(eventrouter.GameServiceSink{Dispatcher: dispatcher}, gameservice.WithTimers(timers))

	c := &Container{starts: make(map[string]gameStartMeta)}
	games.SetLifecycle(gameservice.GameLifecycle{
		OnStart: func(gameID string, playerNames [4]string, seed, rngVersion string) {
			collector.StartGame(gameID)
			c.startsMu.Lock()
			c.starts[gameID] = gameStartMeta{
				playerNames: playerNames,
				seed:        seed,
				rngVersion:  rngVersion,
				startedAt:   time.Now(),
			}
			c.startsMu.Unlock()
		},
		OnEnd: func(gameID string, end mahjong.GameEndEvent) {
			c.finishGame(gameID, end, collector, replayStore, gameIndex, games)
		},
	})

	ticketSecret := cfg.Ticket.Secret
	ticketTTL := time.Duration(cfg.Ticket.TTLSeconds) * time.Second
	signer := ticket.RoomSigner{Secret: ticketSecret, TTL: ticketTTL}

	roomTTL := time.Duration(cfg.Room.TTLSeconds) * time.Second
	rooms, err := room.NewManager(roomTTL, settings, signer, games)
	if err != nil {
		return nil, fmt.Errorf("app: building room manager: %w", err)
	}

	sessions := session.NewStore(redisMgr)
	reconnectGrace := time.Duration(cfg.Room.ReconnectGraceSeconds) * time.Second
	rt := msgrouter.NewRouter(rooms, sessions, games, ticketSecret, ticketTTL, reconnectGrace)
	hub.Router = rt

	identity := storage.AllowAllIdentityProvider{}
	issuer := authenticatingTicketIssuer{signer: signer, identity: identity}

	mountPath := ""
	if cfg.Debug.Statsviz {
		mountPath = "/debug/statsviz"
	}
	httpSrv := httpapi.NewServer(httpapi.Config{
		Port:           cfg.HttpPort,
		StatsviteMount: mountPath,
	}, rooms, issuer)

	wsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WsPort),
		Handler: hub,
	}

	c.Hub = hub
	c.Router = rt
	c.Rooms = rooms
	c.Sessions = sessions
	c.Games = games
	c.Collector = collector
	c.Replays = replayStore
	c.GameIndex = gameIndex
	c.Timers = timers
	c.HTTP = httpSrv
	c.wsServer = wsSrv
	c.mongo = mongoMgr
	c.redis = redisMgr
	return c, nil
}

// finishGame saves a finished game's replay and summary record and
// tears down its actor and timers. It runs from inside the actor
// goroutine that just produced the GAME_END event, whether that
// transition was a player's own action or the timeout subsystem acting
// on a stalled seat on their behalf, so it must not block on anything
// the actor itself would need to make progress.
func (c *Container) finishGame(gameID string, end mahjong.GameEndEvent, collector *replay.Collector, replayStore *storage.FileReplayStore, gameIndex storage.GameRecordRepository, games *gameservice.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.startsMu.Lock()
	meta, ok := c.starts[gameID]
	delete(c.starts, gameID)
	c.startsMu.Unlock()
	if !ok {
		log.Warn("app: no start metadata for finished game %s, saving record with blank seed/players", gameID)
	}

	collector.SaveAndCleanup(ctx, gameID, replayStore)

	record := storage.GameRecord{
		GameID:      gameID,
		Seed:        meta.seed,
		RNGVersion:  meta.rngVersion,
		PlayerNames: meta.playerNames,
		FinalScores: end.FinalScores,
		Placements:  end.Placements,
		ReplayPath:  replayStore.Path(gameID),
		StartedAt:   meta.startedAt,
		FinishedAt:  time.Now(),
	}
	if err := gameIndex.SaveCompletedGame(ctx, record); err != nil {
		log.Error("app: save game record for %s: %v", gameID, err)
	}

	games.StopGame(gameID)
	log.Info("app: game %s finished and torn down", gameID)
}

// authenticatingTicketIssuer satisfies httpapi.TicketIssuer, checking
// the caller against the identity provider before minting a ticket the
// room manager and game server will otherwise trust at face value.
type authenticatingTicketIssuer struct {
	signer   ticket.RoomSigner
	identity storage.IdentityProvider
}

func (a authenticatingTicketIssuer) SignTicket(userID, username, gameID string, seat int) (string, error) {
	if !a.identity.Authenticate(username) {
		return "", fmt.Errorf("app: %q failed identity check", username)
	}
	return a.signer.SignTicket(userID, username, gameID, seat)
}

// StartWS begins serving websocket upgrades; it blocks until the
// listener is closed.
func (c *Container) StartWS() error {
	log.Info("app: websocket hub listening on %s", c.wsServer.Addr)
	err := c.wsServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close shuts down every listener and connection this container owns.
// It is idempotent: a second call is a no-op.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	record(c.HTTP.Shutdown(ctx))
	record(c.wsServer.Shutdown(ctx))
	if c.redis != nil {
		record(c.redis.Close())
	}
	if c.mongo != nil {
		record(c.mongo.Close(ctx))
	}
	return firstErr
}

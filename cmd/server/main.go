package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	log "github.com/sirupsen/logrus"

	"gowrapbridge/config"
	"gowrapbridge/keys"
	"gowrapbridge/redis"
	"gowrapbridge/workers"
)

func main() {
	log.Print("Starting bridge relayer")

	if err := os.MkdirAll("logs", 0o755); err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	f, err := os.OpenFile(fmt.Sprintf("logs/log_%s.txt", time.Now().Format("2006-01-02")), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file for writing: %v", err)
	}
	defer f.Close()

	log.SetOutput(f)

	config.Init()

	// key is loaded once, before any worker starts
	key, err := keys.LoadPrivateKey(config.Config.Relay.SecretKeyPath)
	if err != nil {
		log.Fatalf("Cannot load signing key: %s", err.Error())
	}
	relayer := crypto.PubkeyToAddress(key.PublicKey)
	log.Printf("Relaying from %s", relayer.Hex())

	// checkpoints live in Redis, without persistence do not continue
	redis.Init()
	if err := redis.Ping(); err != nil {
		log.Fatalf("Redis unavailable: %s", err.Error())
	}

	// two worker threads:
	// * relay cycles, source then destination, every poll interval
	// * status API and metrics HTTP server (serves as main worker thread)
	go workers.Worker_relay(workers.NewDaemonRelayer(key))

	workers.Worker_HTTP(relayer)
}

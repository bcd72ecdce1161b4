// Command bot runs AlgoSentinel once or as a scheduled Telegram bot.
//
//	go run ./cmd/bot run --symbols AAPL,MSFT
//	go run ./cmd/bot serve
package main

import (
	"os"

	"AlgoSentinel/cmd/bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

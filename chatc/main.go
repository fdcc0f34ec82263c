// chatc is a small terminal client for smoke-testing a running chatd:
// it registers, joins one channel, prints traffic, and relays stdin
// lines to the channel.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/lrstanley/girc"
)

func main() {
	server := flag.String("server", "127.0.0.1", "Server host")
	port := flag.Int("port", 6667, "Server port")
	nick := flag.String("nick", "guest", "Nickname to claim")
	channel := flag.String("channel", "#lobby", "Channel to join")
	flag.Parse()

	client := girc.New(girc.Config{
		Server: *server,
		Port:   *port,
		Nick:   *nick,
		User:   *nick,
		Name:   *nick,
	})

	client.Handlers.Add(girc.CONNECTED, func(c *girc.Client, e girc.Event) {
		log.Printf("Connected as %s, joining %s", c.GetNick(), *channel)
		c.Cmd.Join(*channel)
	})

	client.Handlers.Add(girc.PRIVMSG, func(c *girc.Client, e girc.Event) {
		fmt.Printf("<%s> %s\n", e.Source.Name, e.Last())
	})

	client.Handlers.Add(girc.JOIN, func(c *girc.Client, e girc.Event) {
		fmt.Printf("*** %s joined %s\n", e.Source.Name, e.Last())
	})

	client.Handlers.Add(girc.PART, func(c *girc.Client, e girc.Event) {
		fmt.Printf("*** %s left %s\n", e.Source.Name, e.Last())
	})

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" {
				client.Close()
				return
			}
			client.Cmd.Message(*channel, line)
		}
	}()

	if err := client.Connect(); err != nil {
		log.Fatalf("Connection error: %v", err)
	}
}

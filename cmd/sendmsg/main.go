// sendmsg injects one rx frame into a running mesh daemon socket, as if a
// node had transmitted it. Useful for poking the bridge end to end without
// a radio on the bench.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
)

func main() {
	host := flag.String("host", "localhost:4403", "mesh daemon host:port")
	from := flag.String("from", "!deadbeef", "sender node ID")
	channel := flag.Int("channel", 0, "broadcast channel")
	dm := flag.Bool("dm", false, "mark the message as a direct message")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: sendmsg [flags] <text>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	frame := map[string]interface{}{
		"type":    "rx",
		"id":      uuid.NewString(),
		"from":    *from,
		"channel": *channel,
		"dm":      *dm,
		"text":    flag.Arg(0),
		"rx_time": time.Now().Unix(),
	}
	line, err := json.Marshal(frame)
	if err != nil {
		fmt.Printf("Error: encode frame: %v\n", err)
		os.Exit(1)
	}

	conn, err := net.DialTimeout("tcp", *host, 5*time.Second)
	if err != nil {
		fmt.Printf("Error: connect to %s: %v\n", *host, err)
		os.Exit(1)
	}
	defer conn.Close()

	if _, err := conn.Write(append(line, '\n')); err != nil {
		fmt.Printf("Error: write frame: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sent to %s: %s\n", *host, line)
}

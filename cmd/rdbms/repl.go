package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/benkivuva/chunkdb/internal/config"
	"github.com/benkivuva/chunkdb/internal/engine"
)

// runREPL starts an interactive SQL shell. Besides SQL it understands
// "\chunk <n>" to change the join chunk size and "\tables".
func runREPL(e *engine.Engine, _ config.Config) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Simple RDBMS REPL")
	fmt.Println("Type 'exit' to quit.")

	for {
		fmt.Print("db> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "exit":
			return nil
		case input == "":
			continue
		case input == `\tables`:
			fmt.Println(strings.Join(e.Catalog().TableNames(), "\n"))
		case strings.HasPrefix(input, `\chunk`):
			arg := strings.TrimSpace(strings.TrimPrefix(input, `\chunk`))
			if arg == "" {
				fmt.Println("chunk size:", e.ChunkSize())
				continue
			}
			n, err := strconv.Atoi(arg)
			if err == nil {
				err = e.SetChunkSize(n)
			}
			if err != nil {
				fmt.Println("Error:", err)
			}
		default:
			res, err := e.Execute(input)
			if err != nil {
				fmt.Println("Error:", err)
				continue
			}
			fmt.Print(res.Format())
		}
	}
}

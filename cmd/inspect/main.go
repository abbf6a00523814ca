package main

import (
	"chat-hub/auth"
	"chat-hub/domain"
	"chat-hub/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

var kindColours = map[string]color.Color{
	"conv":  color.FgCyan,
	"part":  color.FgBlue,
	"msg":   color.FgGreen,
	"att":   color.FgMagenta,
	"user":  color.FgYellow,
	"pair":  color.FgGray,
	"upart": color.FgGray,
	"msgid": color.FgGray,
}

func main() {
	dbPath := flag.String("db", "data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "", "Key prefix to scan, e.g. msg: or user:")
	mint := flag.Int64("mint", 0, "Print a token for this user id instead of scanning (needs JWT_SECRET)")
	ttl := flag.Duration("ttl", 24*time.Hour, "Lifetime of a minted token")
	plain := flag.Bool("plain", false, "Disable colours")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *mint > 0 {
		if err := mintToken(db, domain.UserID(*mint), *ttl); err != nil {
			log.Fatal(err)
		}
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = repositories.Inspect(db, *prefix, func(e repositories.Entry) error {
		if e.Kind == "seq" {
			return nil
		}
		kind := e.Kind
		if c, ok := kindColours[kind]; ok && !*plain {
			kind = c.Render(kind)
		}
		summary := e.Summary
		if strings.HasPrefix(summary, "undecodable") && !*plain {
			summary = color.FgRed.Render(summary)
		}
		table.Append([]string{e.Key, kind, summary})
		count++
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("%d keys\n", count)
}

// mintToken signs a token for a stored user, handy to open a websocket by hand.
func mintToken(db *badger.DB, id domain.UserID, ttl time.Duration) error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	user, err := repositories.LookupUser(db, id)
	if err != nil {
		return err
	}
	token, err := auth.NewTokenIssuer(secret, ttl).GenerateToken(user)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}

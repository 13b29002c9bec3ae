package main

import (
	"context"
	"log"
	"os"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/docopt/docopt-go"

	"github.com/pmachata/ovs-vtep/jsonrpc"
	"github.com/pmachata/ovs-vtep/ovsdb"
)

const VtepCtlVersion = "0.0.1"

const DefaultSocket = "/var/run/openvswitch/db.sock"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `VTEP monitor.

Watches OVSDB tables over the local ovsdb-server socket and prints table
contents as they change.

Usage:
    vtepctl echo [--socket=<socket>] [--ws=<url>] [<message>...]
    vtepctl monitor [--socket=<socket>] [--ws=<url>] [--db=<db>] [--once]

Options:
    -h --help            Show this screen.
    --version            Show version.
    --socket=<socket>    OVSDB unix socket path [default: /var/run/openvswitch/db.sock].
    --ws=<url>           Connect over a websocket url instead of the socket.
    --db=<db>            Database to monitor, hardware_vtep or Open_vSwitch [default: hardware_vtep].
    --once               Print the initial contents and exit.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], VtepCtlVersion)
	if err != nil {
		panic(err)
	}

	if echo_, _ := opts.Bool("echo"); echo_ {
		echo(opts)
	} else if monitor_, _ := opts.Bool("monitor"); monitor_ {
		monitor(opts)
	}
}

func dial(ctx context.Context, opts docopt.Opts) *jsonrpc.Client {
	if wsUrl, err := opts.String("--ws"); err == nil && wsUrl != "" {
		client, err := jsonrpc.DialWs(ctx, wsUrl)
		if err != nil {
			Err.Fatalf("Couldn't connect to %s: %s", wsUrl, err)
		}
		return client
	}

	socket, err := opts.String("--socket")
	if err != nil || socket == "" {
		socket = DefaultSocket
	}
	client, err := jsonrpc.Dial(ctx, "unix", socket)
	if err != nil {
		Err.Fatalf("Couldn't open OVSDB socket %s: %s", socket, err)
	}
	return client
}

func echo(opts docopt.Opts) {
	ctx := context.Background()

	client := dial(ctx, opts)
	defer client.Close()

	args := []any{}
	if messages, ok := opts["<message>"].([]string); ok {
		for _, message := range messages {
			args = append(args, message)
		}
	}
	if len(args) == 0 {
		args = []any{"Hello", "OVSDB", "?"}
	}

	if err := client.Echo(ctx, args...); err != nil {
		Err.Fatalf("Echo failed: %s", err)
	}
	Out.Printf("%v", args)
}

func tableSpecs(db string) ovsdb.TableSpecs {
	switch db {
	case "hardware_vtep":
		return ovsdb.TableSpecs{
			"Physical_Switch": ovsdb.ColumnSpecs{
				"name": ovsdb.ShapeAtom,
				"ports": ovsdb.ShapeRaw,
				"tunnel_ips": ovsdb.ShapeAtom,
				"tunnels": ovsdb.ShapeUuidSet,
			},
		}
	case "Open_vSwitch":
		return ovsdb.TableSpecs{
			"Interface": ovsdb.ColumnSpecs{
				"name": ovsdb.ShapeAtom,
				"type": ovsdb.ShapeAtom,
				"ofport": ovsdb.ShapeAtom,
			},
		}
	default:
		Err.Fatalf("Don't know how to monitor %s", db)
		return nil
	}
}

func monitor(opts docopt.Opts) {
	ctx := context.Background()

	db, err := opts.String("--db")
	if err != nil || db == "" {
		db = "hardware_vtep"
	}
	once, _ := opts.Bool("--once")

	client := dial(ctx, opts)
	defer client.Close()

	mon := ovsdb.NewMonitor(db, tableSpecs(db))
	cache := ovsdb.NewCache()

	result, err := client.Call(ctx, "monitor", mon.RequestParams())
	if err != nil {
		Err.Fatalf("Monitor failed: %s", err)
	}
	updates, err := mon.InitialResult(result)
	if err != nil {
		Err.Fatalf("Couldn't decode monitor result: %s", err)
	}
	cache.Apply(updates)
	printCache(cache)

	if once {
		return
	}

	for notification := range client.Notifications() {
		if notification.Method != "update" {
			continue
		}
		updates, err := mon.Notification(notification.Params)
		if err != nil {
			Err.Fatalf("Couldn't decode update: %s", err)
		}
		cache.Apply(updates)
		printCache(cache)
	}
}

func printCache(cache *ovsdb.Cache) {
	for _, table := range cache.Tables() {
		Out.Printf("%s:", table)
		rows := cache.Rows(table)
		rowUuids := maps.Keys(rows)
		slices.Sort(rowUuids)
		for _, rowUuid := range rowUuids {
			Out.Printf("  %s", rowUuid)
			printRow(rows[rowUuid])
		}
	}
}

func printRow(row ovsdb.RowPart) {
	columns := maps.Keys(row)
	slices.Sort(columns)
	for _, column := range columns {
		value, _ := row.Raw(column)
		Out.Printf("    %s = %v", column, value)
	}
}

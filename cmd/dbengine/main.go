// Command dbengine is an interactive SQL-like shell over the storage
// engine: a disk file, a buffer pool, and a catalog of tables, each
// optionally indexed by one integer column.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/SolieSoftware/db-engine/internal/buffer"
	"github.com/SolieSoftware/db-engine/internal/catalog"
	"github.com/SolieSoftware/db-engine/internal/disk"
	"github.com/SolieSoftware/db-engine/internal/exec"
	"github.com/SolieSoftware/db-engine/internal/sqlparser"
	"github.com/SolieSoftware/db-engine/internal/types"
	"github.com/SolieSoftware/db-engine/pkg/logger"
	"github.com/SolieSoftware/db-engine/pkg/telemetry"
)

const prompt = "dbengine> "

func main() {
	dbPath := flag.String("db", "dbengine.db", "path to the database file")
	poolSize := flag.Int("pool", 64, "number of buffer pool frames")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	telemetryEnabled := flag.Bool("telemetry", false, "export buffer pool / disk metrics over Prometheus")
	metricsPort := flag.Int("metrics-port", 9090, "port for the /metrics endpoint, when -telemetry is set")
	flag.Parse()

	logConfig := logger.DefaultConfig()
	logConfig.Level = *logLevel
	log, err := logger.New(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbengine: setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	telConfig := telemetry.DefaultConfig()
	telConfig.Enabled = *telemetryEnabled
	telConfig.PrometheusPort = *metricsPort
	tel, shutdownTelemetry, err := telemetry.New(telConfig)
	if err != nil {
		log.Fatal("setting up telemetry", zap.Error(err))
	}
	defer shutdownTelemetry(context.Background()) //nolint:errcheck

	bufferMetrics, err := telemetry.NewBufferPoolMetrics(tel.Meter)
	if err != nil {
		log.Fatal("registering buffer pool metrics", zap.Error(err))
	}

	diskManager, err := disk.Open(*dbPath, log)
	if err != nil {
		log.Fatal("opening database file", zap.String("path", *dbPath), zap.Error(err))
	}
	defer diskManager.Close()

	bpm := buffer.New(diskManager, *poolSize, bufferMetrics, log)
	cat := catalog.New(bpm, log)

	sh := &shell{bpm: bpm, disk: diskManager, catalog: cat, log: log, out: os.Stdout}
	sh.run(*dbPath)
}

type shell struct {
	bpm     *buffer.Manager
	disk    *disk.Manager
	catalog *catalog.Catalog
	log     *zap.Logger
	out     io.Writer
}

func (sh *shell) run(dbPath string) {
	historyFile := filepath.Join(os.TempDir(), "dbengine_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 prompt,
		HistoryFile:            historyFile,
		HistoryLimit:           1000,
		DisableAutoSaveHistory: false,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbengine: starting readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Fprintf(sh.out, "dbengine shell. database file: %s. \\help for commands, \\quit to exit.\n", dbPath)
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF on ^D, readline.ErrInterrupt on ^C
			fmt.Fprintln(sh.out)
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "\\") {
			if sh.dispatchMeta(line) {
				return
			}
			continue
		}
		sh.dispatchSQL(line)
	}
}

// dispatchMeta handles a backslash meta-command. Returns true if the shell
// should exit.
func (sh *shell) dispatchMeta(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "\\quit", "\\q":
		return true
	case "\\help":
		fmt.Fprintln(sh.out, "  SELECT ... FROM table [WHERE ...]")
		fmt.Fprintln(sh.out, "  INSERT INTO table (cols...) VALUES (...), ...")
		fmt.Fprintln(sh.out, "  \\create <table> <col>:<INT|VARCHAR> [<col>:<INT|VARCHAR> ...]")
		fmt.Fprintln(sh.out, "  \\index <table> <column>")
		fmt.Fprintln(sh.out, "  \\tables")
		fmt.Fprintln(sh.out, "  \\pages")
		fmt.Fprintln(sh.out, "  \\flush")
		fmt.Fprintln(sh.out, "  \\stats")
		fmt.Fprintln(sh.out, "  \\quit")
	case "\\create":
		sh.handleCreate(fields[1:])
	case "\\index":
		sh.handleIndex(fields[1:])
	case "\\tables":
		for _, name := range sh.catalog.ListTables() {
			fmt.Fprintln(sh.out, name)
		}
	case "\\pages":
		fmt.Fprintf(sh.out, "disk pages: %d, buffer pool: %d/%d resident\n",
			sh.disk.GetNumPages(), sh.bpm.ResidentPages(), sh.bpm.PoolSize())
	case "\\flush":
		if err := sh.bpm.FlushAllPages(); err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintln(sh.out, "flushed all resident pages")
	case "\\stats":
		fmt.Fprintf(sh.out, "disk pages: %d\n", sh.disk.GetNumPages())
		fmt.Fprintf(sh.out, "buffer pool: %d/%d resident frames\n", sh.bpm.ResidentPages(), sh.bpm.PoolSize())
		fmt.Fprintf(sh.out, "tables: %d\n", len(sh.catalog.ListTables()))
		fmt.Fprintln(sh.out, "per-operation hit/miss/eviction counters are exported over /metrics when -telemetry is set")
	default:
		fmt.Fprintf(sh.out, "unknown command %q, try \\help\n", fields[0])
	}
	return false
}

// handleCreate parses `<table> <col>:<KIND> ...` and registers a table.
func (sh *shell) handleCreate(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(sh.out, "usage: \\create <table> <col>:<INT|VARCHAR> [<col>:<INT|VARCHAR> ...]")
		return
	}
	table := args[0]
	var columns []types.Column
	for _, spec := range args[1:] {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			fmt.Fprintf(sh.out, "error: bad column spec %q, want name:KIND\n", spec)
			return
		}
		kind, err := parseKind(parts[1])
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return
		}
		columns = append(columns, types.Column{Name: parts[0], Kind: kind})
	}
	if _, err := sh.catalog.CreateTable(table, types.NewSchema(columns...)); err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.out, "table %s created\n", table)
}

func (sh *shell) handleIndex(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(sh.out, "usage: \\index <table> <column>")
		return
	}
	if err := sh.catalog.CreateIndex(args[0], args[1]); err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.out, "index on %s.%s created\n", args[0], args[1])
}

func parseKind(s string) (types.Kind, error) {
	switch strings.ToUpper(s) {
	case "INT", "INTEGER":
		return types.Integer, nil
	case "VARCHAR", "STR", "STRING":
		return types.Varchar, nil
	default:
		return 0, fmt.Errorf("unknown column type %q, want INT or VARCHAR", s)
	}
}

// dispatchSQL parses and runs a SELECT or INSERT statement.
func (sh *shell) dispatchSQL(line string) {
	stmt, err := sqlparser.Parse(line)
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	switch s := stmt.(type) {
	case *sqlparser.SelectStmt:
		sh.runSelect(s)
	case *sqlparser.InsertStmt:
		sh.runInsert(s)
	default:
		fmt.Fprintf(sh.out, "error: unsupported statement type %T\n", stmt)
	}
}

func (sh *shell) runSelect(stmt *sqlparser.SelectStmt) {
	info, err := sh.catalog.Table(stmt.Table)
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}

	pred, err := exec.CompilePredicate(info.Schema, stmt.Where)
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	scan := exec.NewSeqScanExecutor(info.Heap, info.Schema, sh.log)
	plan := exec.Executor(exec.NewFilterExecutor(scan, pred))

	projection := stmt.Columns
	if len(projection) == 1 && projection[0] == "*" {
		projection = nil
		for _, c := range info.Schema.Columns {
			projection = append(projection, c.Name)
		}
	}

	if err := plan.Init(); err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(sh.out, strings.Join(projection, "\t"))
	count := 0
	for {
		row, _, ok, err := plan.Next()
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return
		}
		if !ok {
			break
		}
		fields := make([]string, len(projection))
		for i, col := range projection {
			v, ok := row.Get(info.Schema, col)
			if !ok {
				fields[i] = "<null>"
				continue
			}
			fields[i] = v.String()
		}
		fmt.Fprintln(sh.out, strings.Join(fields, "\t"))
		count++
	}
	fmt.Fprintf(sh.out, "(%d rows)\n", count)
}

func (sh *shell) runInsert(stmt *sqlparser.InsertStmt) {
	info, err := sh.catalog.Table(stmt.Table)
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	rows, err := buildInsertRows(info.Schema, stmt)
	if err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}

	ins := exec.NewInsertExecutor(info.Heap, info.Schema, rows)
	if err := ins.Init(); err != nil {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	count := 0
	for {
		_, _, ok, err := ins.Next()
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
			return
		}
		if !ok {
			break
		}
		count++
	}
	fmt.Fprintf(sh.out, "(%d rows inserted)\n", count)
}

// buildInsertRows reorders each VALUES tuple from INSERT's column order into
// schema order, filling any column the statement omitted with its zero
// value.
func buildInsertRows(schema types.Schema, stmt *sqlparser.InsertStmt) ([]types.Row, error) {
	columns := stmt.Columns
	if len(columns) == 0 {
		for _, c := range schema.Columns {
			columns = append(columns, c.Name)
		}
	}

	rows := make([]types.Row, 0, len(stmt.Values))
	for _, tuple := range stmt.Values {
		if len(tuple) != len(columns) {
			return nil, fmt.Errorf("expected %d values, got %d", len(columns), len(tuple))
		}
		row := make(types.Row, len(schema.Columns))
		for j, c := range schema.Columns {
			if c.Kind == types.Varchar {
				row[j] = types.NewVarchar("")
			}
		}
		for i, colName := range columns {
			idx := schema.IndexOf(colName)
			if idx < 0 {
				return nil, fmt.Errorf("no such column %q", colName)
			}
			v, err := literalValue(tuple[i])
			if err != nil {
				return nil, err
			}
			if v.Kind != schema.Columns[idx].Kind {
				return nil, fmt.Errorf("column %s: expected %s, got %s", colName, schema.Columns[idx].Kind, v.Kind)
			}
			row[idx] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func literalValue(e sqlparser.Expr) (types.Value, error) {
	switch e.Kind {
	case sqlparser.ExprInt:
		return types.NewInteger(e.Int), nil
	case sqlparser.ExprStr:
		return types.NewVarchar(e.Str), nil
	default:
		return types.Value{}, fmt.Errorf("expected a literal value")
	}
}

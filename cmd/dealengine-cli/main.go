// Command dealengine-cli is the submission portal's command-line
// interface (spec §6.2, §6.3). Each invocation loads the durable
// logbook/document-store state from --data-dir, applies one action,
// persists the result, and exits — there is no long-running daemon.
//
// Commands:
//
//	submit              Create a new logbook from submission fields
//	document add        Attach a new document to an existing logbook
//	document replace    Replace a document of the same type
//	transition          Move a logbook to a new status
//	show                Print the current submission snapshot
//	history             Print every version of a logbook
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/axisdeal/deal-engine/internal/docstore"
	"github.com/axisdeal/deal-engine/internal/logbook"
	"github.com/axisdeal/deal-engine/internal/persistence"
	"github.com/axisdeal/deal-engine/pkg/clock"
	"github.com/axisdeal/deal-engine/pkg/dealengine/submission"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "submit":
		handleSubmit(os.Args[2:])
	case "document":
		handleDocument(os.Args[2:])
	case "transition":
		handleTransition(os.Args[2:])
	case "show":
		handleShow(os.Args[2:])
	case "history":
		handleHistory(os.Args[2:])
	case "version":
		fmt.Printf("dealengine-cli v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("dealengine-cli v" + version)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  dealengine-cli <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  submit              Create a new logbook from submission fields")
	fmt.Println("  document add        Attach a new document to an existing logbook")
	fmt.Println("  document replace    Replace a document of the same type")
	fmt.Println("  transition          Move a logbook to a new status")
	fmt.Println("  show                Print the current submission snapshot")
	fmt.Println("  history             Print every version of a logbook")
	fmt.Println("  version             Print version")
	fmt.Println()
	fmt.Println("All commands accept --data-dir (default ./dealengine-data).")
}

// openState loads the logbook snapshot and rebuilds the document
// index from dataDir, returning both stores ready for one action.
func openState(dataDir string) (*logbook.Store, *docstore.Store, error) {
	c := clock.NewReal()

	books, err := persistence.LoadLogbooks(logbookSnapshotPath(dataDir), c)
	if err != nil {
		return nil, nil, fmt.Errorf("loading logbook snapshot: %w", err)
	}

	docs, err := docstore.New(dataDir, c)
	if err != nil {
		return nil, nil, fmt.Errorf("opening document store: %w", err)
	}
	records, err := persistence.RebuildDocumentIndex(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuilding document index: %w", err)
	}
	docs.RestoreIndex(records)

	return books, docs, nil
}

func saveState(dataDir string, books *logbook.Store) error {
	return persistence.SnapshotLogbooks(logbookSnapshotPath(dataDir), books)
}

func logbookSnapshotPath(dataDir string) string {
	return filepath.Join(dataDir, "logbooks.json")
}

func handleSubmit(args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./dealengine-data", "state directory")
	fullAddress := fs.String("full-address", "", "required")
	postcode := fs.String("postcode", "", "required")
	propertyType := fs.String("property-type", "", "required")
	tenure := fs.String("tenure", "", "required")
	floorArea := fs.Float64("floor-area", 0, "required, square metres")
	guidePrice := fs.Int64("guide-price", 0, "required, GBP")
	saleRoute := fs.String("sale-route", "", "auction|private_treaty|off_market, required")
	agentFirm := fs.String("agent-firm", "", "required")
	agentName := fs.String("agent-name", "", "required")
	agentEmail := fs.String("agent-email", "", "required")
	hasPlanning := fs.Bool("has-planning-application", false, "")
	actionBy := fs.String("agent", "agent", "attributed actor for this version")
	fs.Parse(args)

	books, _, err := openState(*dataDir)
	exitOnErr(err)

	book := books.Submit(submission.Fields{
		FullAddress:            *fullAddress,
		Postcode:               *postcode,
		PropertyType:           *propertyType,
		Tenure:                 *tenure,
		FloorAreaSqm:           *floorArea,
		GuidePrice:             *guidePrice,
		SaleRoute:              submission.SaleRoute(*saleRoute),
		AgentFirm:              *agentFirm,
		AgentName:              *agentName,
		AgentEmail:             *agentEmail,
		HasPlanningApplication: *hasPlanning,
	}, *actionBy)

	exitOnErr(saveState(*dataDir, books))

	fmt.Printf("property_id=%s status=%s\n", book.PropertyID, book.CurrentStatus)
}

func handleDocument(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: dealengine-cli document <add|replace> [options]")
		os.Exit(1)
	}
	action, rest := args[0], args[1:]

	fs := flag.NewFlagSet("document "+action, flag.ExitOnError)
	dataDir := fs.String("data-dir", "./dealengine-data", "state directory")
	propertyID := fs.String("property", "", "required, PROP-xxxxxxxxxxxx")
	docType := fs.String("type", "", "required, one of TITLE_REGISTER|EPC|FLOOR_PLAN|LEASE|PLANNING_APPROVAL|OTHER")
	filePath := fs.String("file", "", "required, path to the document bytes")
	actionBy := fs.String("agent", "agent", "attributed actor for this version")
	fs.Parse(rest)

	books, docs, err := openState(*dataDir)
	exitOnErr(err)

	content, err := os.ReadFile(*filePath)
	exitOnErr(err)

	record, rej := docs.Put(*propertyID, submission.DocumentType(*docType), content, filepath.Base(*filePath))
	if rej != nil {
		fmt.Fprintf(os.Stderr, "document rejected: %s: %s\n", rej.Code, rej.Reason)
		os.Exit(1)
	}

	var book *submission.Logbook
	switch action {
	case "add":
		book, rej = books.AddDocument(*propertyID, record, *actionBy)
	case "replace":
		book, rej = books.ReplaceDocument(*propertyID, record, *actionBy)
	default:
		fmt.Fprintf(os.Stderr, "Unknown document command: %s\n", action)
		os.Exit(1)
	}
	if rej != nil {
		fmt.Fprintf(os.Stderr, "logbook update rejected: %s: %s\n", rej.Code, rej.Reason)
		os.Exit(1)
	}

	exitOnErr(saveState(*dataDir, books))
	fmt.Printf("document_id=%s version=%d status=%s\n", record.DocumentID, len(book.Versions), book.CurrentStatus)
}

func handleTransition(args []string) {
	fs := flag.NewFlagSet("transition", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./dealengine-data", "state directory")
	propertyID := fs.String("property", "", "required")
	status := fs.String("status", "", "required, target status")
	actionBy := fs.String("agent", "agent", "attributed actor for this version")
	fs.Parse(args)

	books, _, err := openState(*dataDir)
	exitOnErr(err)

	book, rej := books.TransitionStatus(*propertyID, submission.Status(*status), *actionBy)
	if rej != nil {
		fmt.Fprintf(os.Stderr, "transition rejected: %s: %s\n", rej.Code, rej.Reason)
		os.Exit(1)
	}

	exitOnErr(saveState(*dataDir, books))
	fmt.Printf("property_id=%s status=%s version=%d\n", book.PropertyID, book.CurrentStatus, len(book.Versions))
}

func handleShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./dealengine-data", "state directory")
	propertyID := fs.String("property", "", "required")
	fs.Parse(args)

	books, _, err := openState(*dataDir)
	exitOnErr(err)

	book, rej := books.Get(*propertyID)
	if rej != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", rej.Code, rej.Reason)
		os.Exit(1)
	}

	current := book.Current()
	fmt.Printf("property_id:  %s\n", book.PropertyID)
	fmt.Printf("status:       %s\n", book.CurrentStatus)
	fmt.Printf("version:      %d\n", current.VersionNumber)
	fmt.Printf("address:      %s, %s\n", current.Snapshot.FullAddress, current.Snapshot.Postcode)
	fmt.Printf("type/tenure:  %s / %s\n", current.Snapshot.PropertyType, current.Snapshot.Tenure)
	fmt.Printf("guide price:  £%d\n", current.Snapshot.GuidePrice)
	fmt.Printf("documents:    %d\n", len(current.Snapshot.Documents))
}

func handleHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dataDir := fs.String("data-dir", "./dealengine-data", "state directory")
	propertyID := fs.String("property", "", "required")
	fs.Parse(args)

	books, _, err := openState(*dataDir)
	exitOnErr(err)

	history, rej := books.History(*propertyID)
	if rej != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", rej.Code, rej.Reason)
		os.Exit(1)
	}

	for _, v := range history {
		fmt.Printf("v%-3d %-20s %-16s by=%-10s status=%s\n", v.VersionNumber, v.Timestamp.Format("2006-01-02T15:04:05Z"), v.Action, v.ActionBy, v.StatusAtVersion)
	}
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

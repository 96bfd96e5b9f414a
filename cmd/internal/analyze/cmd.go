// Package analyze implements the CLI's one verb: load a capture file
// through the engine and print the frame list, conversations, and
// application-layer tables it produces.
package analyze

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/sankooc/shark-go/engine"
	"github.com/sankooc/shark-go/loader"
	"github.com/sankooc/shark-go/model"
	"github.com/sankooc/shark-go/printer"
)

var (
	frameOffsetFlag int
	frameLimitFlag  int
	showDNSFlag     bool
	showHTTPFlag    bool
	showTLSFlag     bool
	showConvFlag    bool
	dumpFieldsFlag  int
)

var Cmd = &cobra.Command{
	Use:          "analyze FILE",
	Short:        "Decode a pcap/pcap-ng capture and print its frames.",
	Long:         "analyze streams a capture file through the engine in batches, then prints the frame summary table plus whatever cross-frame tables were requested.",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(args[0])
	},
}

func init() {
	Cmd.Flags().IntVar(&frameOffsetFlag, "offset", 0, "first frame index to print")
	Cmd.Flags().IntVar(&frameLimitFlag, "limit", 100, "maximum number of frames to print (0 = all)")
	Cmd.Flags().BoolVar(&showDNSFlag, "dns", false, "print the DNS record table instead of frames")
	Cmd.Flags().BoolVar(&showHTTPFlag, "http", false, "print the HTTP message table instead of frames")
	Cmd.Flags().BoolVar(&showTLSFlag, "tls", false, "print the TLS handshake table instead of frames")
	Cmd.Flags().BoolVar(&showConvFlag, "conversations", false, "print host-pair conversations instead of frames")
	Cmd.Flags().IntVar(&dumpFieldsFlag, "dump-fields", -1, "dump the full field tree for one frame index to stderr (-vv style debug output)")
}

func run(path string) error {
	fl, err := loader.OpenFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to open capture")
	}
	defer fl.Close()

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "failed to stat capture")
	}

	opts := engine.DefaultOptions()
	eng := engine.New(opts)

	var offset int64
	size := info.Size()
	for offset < size {
		n := int64(opts.BatchSize)
		if offset+n > size {
			n = size - offset
		}
		chunk, err := fl.ReadRange(context.Background(), loader.Range{Offset: offset, Length: n})
		if err != nil {
			return errors.Wrap(err, "failed to read capture")
		}
		if _, err := eng.Ingest(chunk); err != nil {
			return errors.Wrap(err, "failed to ingest capture bytes")
		}
		offset += n
	}

	if err := eng.Errors(); err != nil {
		printer.Warningf("%s\n", err)
	}

	if dumpFieldsFlag >= 0 {
		tree, err := eng.Frame(dumpFieldsFlag)
		if err != nil {
			return errors.Wrap(err, "failed to materialize field tree")
		}
		printer.Infof("field tree for frame %d:\n%s\n", dumpFieldsFlag, spew.Sdump(tree))
	}

	switch {
	case showDNSFlag:
		printDNS(eng)
	case showHTTPFlag:
		printHTTP(eng)
	case showTLSFlag:
		printTLS(eng)
	case showConvFlag:
		printConversations(eng)
	default:
		printFrames(eng)
	}

	return nil
}

func printFrames(eng *engine.Engine) {
	md := eng.Metadata()
	printer.Infof("file=%s link=%d frames=%d span=%dus\n", md.FileType, md.LinkType, md.FrameCount, md.SpanUs)

	frames := eng.Frames(frameOffsetFlag, frameLimitFlag)
	for _, f := range frames {
		fmt.Printf("%6d %14d %-8s %-20s -> %-20s %-8s %s\n",
			f.Index, f.TimestampUs, f.Status, eng.ResolveHost(f.Source), eng.ResolveHost(f.Destination), f.TopProtocol, f.Info)
	}
}

func printConversations(eng *engine.Engine) {
	convs := eng.Conversations(nil)
	for _, c := range convs {
		fmt.Printf("%-20s <-> %-20s bytesA=%d bytesB=%d conns=%d\n",
			eng.ResolveHost(c.Key.HostA), eng.ResolveHost(c.Key.HostB), c.ABytes, c.BBytes, len(c.ConnectionIDs))
	}
}

func printDNS(eng *engine.Engine) {
	for i, rec := range eng.DNSList(frameOffsetFlag, frameLimitFlag) {
		fmt.Printf("%6d %s query=%s %s\n", i, rec.QueryType, rec.QueryName, strings.Join(answerStrings(rec), ","))
	}
}

func answerStrings(rec model.DNSRecord) []string {
	out := make([]string, 0, len(rec.Answers))
	for _, a := range rec.Answers {
		out = append(out, fmt.Sprintf("%s=%s", a.Type, a.Content))
	}
	return out
}

func printHTTP(eng *engine.Engine) {
	for i, msg := range eng.HTTPList(frameOffsetFlag, frameLimitFlag) {
		fmt.Printf("%6d %s %s %d\n", i, msg.Method, msg.Path, msg.StatusCode)
	}
}

func printTLS(eng *engine.Engine) {
	for i, rec := range eng.TLSList(frameOffsetFlag, frameLimitFlag) {
		fmt.Printf("%6d sni=%s version=0x%04x cipher=0x%04x\n", i, rec.SNI, rec.Version, rec.ChosenCipherSuite)
	}
}

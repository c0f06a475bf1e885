// Command upscalerstatus decodes the packed status codes and resolutions an
// upscaler plugin reports to its host.
//
// Usage:
//
//	upscalerstatus 0x40010001 SettingsErrorInvalidSharpnessValue
//	upscalerstatus -resolution 0x0000078000000438
//	upscalerstatus -list
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	upscaler "github.com/PercentBoat4164/Upscaler-sub000"
)

func main() {
	var (
		list       = flag.Bool("list", false, "list every known status code")
		resolution = flag.Bool("resolution", false, "decode arguments as packed width<<32|height resolutions")
	)
	flag.Parse()

	if *list {
		listStatuses(os.Stdout)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	failed := false
	for _, arg := range flag.Args() {
		var err error
		if *resolution {
			err = describeResolution(os.Stdout, arg)
		} else {
			err = describeStatus(os.Stdout, arg)
		}
		if err != nil {
			log.Printf("%s: %v", arg, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

// parseStatus accepts a status name or a number in any base strconv
// understands.
func parseStatus(arg string) (upscaler.Status, error) {
	if s, ok := upscaler.ParseStatus(arg); ok {
		return s, nil
	}
	v, err := strconv.ParseUint(arg, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("not a status name or number")
	}
	return upscaler.Status(v), nil
}

func describeStatus(w io.Writer, arg string) error {
	s, err := parseStatus(arg)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "0x%08X %s\n", uint32(s), s)
	fmt.Fprintf(w, "  type:        %s\n", s.Type())
	fmt.Fprintf(w, "  code:        %d\n", s.Code())
	fmt.Fprintf(w, "  failed:      %t\n", s.Failed())
	fmt.Fprintf(w, "  recoverable: %t\n", s.Recoverable())
	fmt.Fprintf(w, "  dummy:       %t\n", s.Dummy())
	return nil
}

func describeResolution(w io.Writer, arg string) error {
	v, err := strconv.ParseUint(arg, 0, 64)
	if err != nil {
		return fmt.Errorf("not a packed resolution")
	}
	r := upscaler.UnpackResolution(v)
	fmt.Fprintf(w, "0x%016X %dx%d\n", v, r.Width, r.Height)
	return nil
}

func listStatuses(w io.Writer) {
	for _, s := range upscaler.Statuses() {
		fmt.Fprintf(w, "0x%08X %s\n", uint32(s), s)
	}
}

package recorder

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/agourlay/hprof-slurp/internal/hprof"
)

// classRow is one row of the allocation tables: a class or array label plus
// its instance count, total allocation, and largest single allocation.
type classRow struct {
	label   string
	count   uint64
	total   uint64
	largest uint64
}

// Render writes the full human-readable report: the record-count summary,
// the two allocation tables, per-thread stack traces and, if requested, the
// captured string list.
func (r *Recorder) Render(w io.Writer) {
	r.renderSummary(w)
	rows := r.buildRows()
	r.renderAllocationTables(w, rows)
	r.renderThreadInfo(w)
	if dup := r.duplicateStringCount(); dup > 0 {
		fmt.Fprintf(w, "\nDuplicated strings: %d\n", dup)
	}
	if r.listStrings {
		fmt.Fprintln(w, "\nList of Strings")
		for _, s := range r.sortedStringValues() {
			fmt.Fprintln(w, s)
		}
	}
}

func (r *Recorder) renderSummary(w io.Writer) {
	fmt.Fprintln(w, "File content summary:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "UTF-8 Strings: %d\n", len(r.utf8Strings))
	fmt.Fprintf(w, "Classes loaded: %d\n", len(r.classNameIDByID))
	fmt.Fprintf(w, "Classes unloaded: %d\n", r.classesUnloaded)
	fmt.Fprintf(w, "Stack traces: %d\n", r.stackTraces)
	fmt.Fprintf(w, "Stack frames: %d\n", r.stackFrames)
	fmt.Fprintf(w, "Start threads: %d\n", r.startThreads)
	fmt.Fprintf(w, "Allocation sites: %d\n", r.allocationSites)
	fmt.Fprintf(w, "End threads: %d\n", r.endThreads)
	fmt.Fprintf(w, "Control settings: %d\n", r.controlSettings)
	fmt.Fprintf(w, "CPU samples: %d\n", r.cpuSamples)
	fmt.Fprintf(w, "Heap summaries: %d\n", r.heapSummaries)
	fmt.Fprintf(w, "%d heap dumps containing in total %d segments:\n", r.heapDumps, r.gcAllSubRecords)
	fmt.Fprintf(w, "..GC root unknown: %d\n", r.gcRootUnknown)
	fmt.Fprintf(w, "..GC root thread objects: %d\n", r.gcRootThreadObject)
	fmt.Fprintf(w, "..GC root JNI global: %d\n", r.gcRootJNIGlobal)
	fmt.Fprintf(w, "..GC root JNI local: %d\n", r.gcRootJNILocal)
	fmt.Fprintf(w, "..GC root Java frame: %d\n", r.gcRootJavaFrame)
	fmt.Fprintf(w, "..GC root native stack: %d\n", r.gcRootNativeStack)
	fmt.Fprintf(w, "..GC root sticky class: %d\n", r.gcRootStickyClass)
	fmt.Fprintf(w, "..GC root thread block: %d\n", r.gcRootThreadBlock)
	fmt.Fprintf(w, "..GC root monitor used: %d\n", r.gcRootMonitorUsed)
	fmt.Fprintf(w, "..GC primitive array dump: %d\n", r.gcPrimitiveArrayDump)
	fmt.Fprintf(w, "..GC object array dump: %d\n", r.gcObjectArrayDump)
	fmt.Fprintf(w, "..GC root class dump: %d\n", r.gcClassDump)
	var instanceDumps uint64
	for _, n := range r.instanceCounter {
		instanceDumps += n
	}
	fmt.Fprintf(w, "..GC root instance dump: %d\n", instanceDumps)
}

// buildRows merges regular-class, primitive-array and object-array
// allocation rows into a single slice, per spec.md §4.4's memory-layout
// accounting.
func (r *Recorder) buildRows() []classRow {
	rows := make([]classRow, 0, len(r.instanceCounter)+len(r.primitiveArrayCounters)+len(r.objectArrayCounters))

	for classID, count := range r.instanceCounter {
		perInstance := instanceSize(classID, r.classInfo, r.idSize)
		rows = append(rows, classRow{
			label:   r.className(classID),
			count:   count,
			total:   perInstance * count,
			largest: perInstance,
		})
	}

	for ft, c := range r.primitiveArrayCounters {
		elemSize := primitiveByteSize(ft, r.idSize)
		rows = append(rows, classRow{
			label:   javaPrimitiveArrayLabel(ft),
			count:   c.count,
			total:   primitiveArrayTotal(*c, elemSize, r.idSize),
			largest: primitiveArrayLargest(*c, elemSize, r.idSize),
		})
	}

	for classID, c := range r.objectArrayCounters {
		rows = append(rows, classRow{
			label:   objectArrayLabel(r.className(classID)),
			count:   c.count,
			total:   objectArrayTotal(*c, r.idSize),
			largest: objectArrayLargest(*c, r.idSize),
		})
	}

	return rows
}

func (r *Recorder) renderAllocationTables(w io.Writer, rows []classRow) {
	var totalSize uint64
	for _, row := range rows {
		totalSize += row.total
	}

	fmt.Fprintf(w, "\nTop %d allocations for the %s heap total size:\n\n", r.top, prettyBytesSize(totalSize))
	byTotal := append([]classRow(nil), rows...)
	sort.Slice(byTotal, func(i, j int) bool { return byTotal[i].total > byTotal[j].total })
	renderTable(w, byTotal, r.top, func(row classRow) uint64 { return row.total })

	fmt.Fprintf(w, "\nTop %d largest single instances:\n\n", r.top)
	byLargest := append([]classRow(nil), rows...)
	sort.Slice(byLargest, func(i, j int) bool { return byLargest[i].largest > byLargest[j].largest })
	renderTable(w, byLargest, r.top, func(row classRow) uint64 { return row.largest })
}

func renderTable(w io.Writer, rows []classRow, top int, sizeOf func(classRow) uint64) {
	if len(rows) == 0 {
		return
	}
	if top < len(rows) {
		rows = rows[:top]
	}
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', tabwriter.Debug)
	fmt.Fprintln(tw, "Total size\tInstances\tLargest\tClass name")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", prettyBytesSize(row.total), row.count, prettyBytesSize(row.largest), row.label)
	}
	_ = tw.Flush()
}

func (r *Recorder) renderThreadInfo(w io.Writer) {
	serials := make([]uint32, 0, len(r.stackTraceBySerial))
	for serial, trace := range r.stackTraceBySerial {
		if len(trace.StackFrameIDs) > 0 {
			serials = append(serials, serial)
		}
	}
	if len(serials) == 0 {
		return
	}
	sort.Slice(serials, func(i, j int) bool { return serials[i] < serials[j] })

	fmt.Fprintln(w, "\nThreads:")
	for _, serial := range serials {
		trace := r.stackTraceBySerial[serial]
		fmt.Fprintf(w, "\nStack trace %d (thread serial %d):\n", trace.SerialNumber, trace.ThreadSerial)
		for _, frameID := range trace.StackFrameIDs {
			frame, ok := r.stackFrameByID[frameID]
			if !ok {
				continue
			}
			fmt.Fprintln(w, r.formatFrame(frame))
		}
	}
}

func (r *Recorder) formatFrame(frame hprof.StackFrameRecord) string {
	className := "<unknown class>"
	if loadClass, ok := r.classDataBySerial[frame.ClassSerialNumber]; ok {
		className = r.className(loadClass.ClassObjectID)
	}
	method := r.utf8Strings[frame.MethodNameID]
	sourceFile := r.utf8Strings[frame.SourceFileNameID]
	return fmt.Sprintf("  at %s.%s(%s:%s)", className, method, sourceFile, lineNumberLabel(frame.LineNumber))
}

func lineNumberLabel(line int32) string {
	switch line {
	case -1:
		return "unknown line number"
	case -2:
		return "compiled method"
	case -3:
		return "native method"
	default:
		return fmt.Sprintf("%d", line)
	}
}

// javaPrimitiveArrayLabel renders a FieldType as the Java source keyword
// used to declare an array of that type, e.g. "int[]".
func javaPrimitiveArrayLabel(t hprof.FieldType) string {
	switch t {
	case hprof.FieldTypeBoolean:
		return "boolean[]"
	case hprof.FieldTypeChar:
		return "char[]"
	case hprof.FieldTypeFloat:
		return "float[]"
	case hprof.FieldTypeDouble:
		return "double[]"
	case hprof.FieldTypeByte:
		return "byte[]"
	case hprof.FieldTypeShort:
		return "short[]"
	case hprof.FieldTypeInt:
		return "int[]"
	case hprof.FieldTypeLong:
		return "long[]"
	default:
		return "unknown[]"
	}
}

// objectArrayLabel strips the JVM array-type mangling ("[L...;" or
// "[[L...;") from a raw class name and appends a display "[]" suffix,
// falling back to the raw name when it doesn't match either shape.
func objectArrayLabel(rawClassName string) string {
	switch {
	case strings.HasPrefix(rawClassName, "[[L") && strings.HasSuffix(rawClassName, ";"):
		return rawClassName[3:len(rawClassName)-1] + "[]"
	case strings.HasPrefix(rawClassName, "[L") && strings.HasSuffix(rawClassName, ";"):
		return rawClassName[2:len(rawClassName)-1] + "[]"
	default:
		return rawClassName + "[]"
	}
}

const (
	kilobyte = 1024.0
	megabyte = kilobyte * 1024.0
	gigabyte = megabyte * 1024.0
)

// prettyBytesSize renders a byte count using the same thresholds and
// precision as the tool this was ported from. Human-readable byte
// formatting is explicitly out of scope as a "nice to have"; this is kept
// minimal on purpose.
func prettyBytesSize(n uint64) string {
	f := float64(n)
	switch {
	case f > gigabyte:
		return fmt.Sprintf("%.2fGiB", f/gigabyte)
	case f > megabyte:
		return fmt.Sprintf("%.2fMiB", f/megabyte)
	case f > kilobyte:
		return fmt.Sprintf("%.2fKiB", f/kilobyte)
	default:
		return fmt.Sprintf("%.2fbytes", f)
	}
}

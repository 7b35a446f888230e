package bamprovider

import (
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

// WriteIndexedBAM writes recs, which must be coordinate-sorted, to a BAM file
// at path and a matching index at path + ".bai".  It is meant for tests and
// small fixtures.
func WriteIndexedBAM(ctx context.Context, path string, header *sam.Header, recs []*sam.Record) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	bamWriter, err := bam.NewWriter(out.Writer(ctx), header, 1)
	if err != nil {
		out.Close(ctx) // nolint: errcheck
		return err
	}
	for _, r := range recs {
		if err = bamWriter.Write(r); err != nil {
			out.Close(ctx) // nolint: errcheck
			return err
		}
	}
	if err = bamWriter.Close(); err != nil {
		out.Close(ctx) // nolint: errcheck
		return err
	}
	if err = out.Close(ctx); err != nil {
		return err
	}

	// Re-read the records to learn their virtual offsets.
	in, err := file.Open(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader, err := bam.NewReader(in.Reader(ctx), 1)
	if err != nil {
		return err
	}
	defer reader.Close()
	var index bam.Index
	for {
		r, rerr := reader.Read()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return rerr
		}
		if err = index.Add(r, reader.LastChunk()); err != nil {
			return err
		}
	}
	indexOut, err := file.Create(ctx, path+".bai")
	if err != nil {
		return err
	}
	if err = bam.WriteIndex(indexOut.Writer(ctx), &index); err != nil {
		indexOut.Close(ctx) // nolint: errcheck
		return err
	}
	return indexOut.Close(ctx)
}

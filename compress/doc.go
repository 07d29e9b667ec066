// Package compress provides whole-file compression codecs for PLY files.
//
// PLY itself defines no compression; large scans are commonly stored as
// "cloud.ply.zst" or similar. The codec wraps the complete file image (header
// and body), so a decompressed file is an ordinary PLY file.
//
// # Supported Algorithms
//
//   - None (format.CompressionNone): plain .ply files
//   - Zstd (format.CompressionZstd): best ratio, standard zstd frames
//   - S2 (format.CompressionS2): fast, S2 stream format
//   - LZ4 (format.CompressionLZ4): fastest decompression, LZ4 frame format
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionFromPath(path))
//	if err != nil {
//	    return err
//	}
//	plain, err := codec.Decompress(raw)
//
// # Thread Safety
//
// All codecs are stateless values; pooled encoders and decoders make them safe
// for concurrent use.
package compress

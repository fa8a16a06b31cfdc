package cli

// cmd/cli/storage.go — CLI wrapper for the core block store (§6).
// ----------------------------------------------------------------------------
// Layout
//   1. Globals & middleware (env-driven wiring of logger, signer, block store).
//   2. Controllers – one per CLI sub-command, thin and validated.
//   3. CLI definitions – commands + flags (TOP of file for discoverability).
//   4. Consolidated route export (BOTTOM), ready for import in root CLI.
// ----------------------------------------------------------------------------
//
// The block store wired here is always core.NewDefaultBlockStore's in-memory
// collaborators: spec.md §1 scopes the persistence backend out ("the core
// speaks to an abstract block-persistence interface"), so every invocation
// of this binary starts from an empty store. get/delete/
// super-cbl reconstruct against a magnet URL or block id from a different
// process correctly return NotFound — that isn't a bug, it's this CLI not
// wiring a persistent BlockPersistence behind the interface. A production
// deployment would inject a disk- or network-backed implementation of the
// same interface without touching any command below.

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"brightchain/core"
)

// ---------------------------------------------------------------------------
// Globals & middleware
// ---------------------------------------------------------------------------

var (
	store     *core.BlockStore
	crypto    core.DefaultCryptoProvider
	signer    core.CBLSigner
	storageLG = logrus.New()

	storageFlags struct {
		blockSize  int
		durability string
		poolId     string
		creator    string
	}
)

func initStorageMiddleware(cmd *cobra.Command, args []string) {
	_ = godotenv.Load()

	resolveStringFlag(cmd, "durability", &storageFlags.durability, os.Getenv("BRIGHTCHAIN_DURABILITY"))
	resolveStringFlag(cmd, "pool", &storageFlags.poolId, os.Getenv("BRIGHTCHAIN_POOL"))
	resolveStringFlag(cmd, "creator", &storageFlags.creator, os.Getenv("BRIGHTCHAIN_CREATOR_SEED"))
	resolveIntFlag(cmd, "block-size", &storageFlags.blockSize, envInt("BRIGHTCHAIN_BLOCK_SIZE", 4096))

	if storageFlags.poolId != "" && !core.IsValidPoolId(storageFlags.poolId) {
		log.Fatalf("invalid --pool id %q", storageFlags.poolId)
	}

	s, err := signerFromSeed(storageFlags.creator)
	if err != nil {
		log.Fatalf("creator identity: %v", err)
	}
	signer = s

	store = core.NewBlockStore(core.NewInMemoryBlockPersistence(), core.NewBlockMetadataStore(), crypto, nil, storageLG)
}

// signerFromSeed builds a SigningMember from a hex-encoded 32-byte Ed25519
// seed, or generates a fresh keypair when seed is empty.
func signerFromSeed(seed string) (core.CBLSigner, error) {
	var priv ed25519.PrivateKey
	if seed == "" {
		_, p, err := core.GenerateIdentityKeys()
		if err != nil {
			return nil, err
		}
		priv = p
	} else {
		b, err := hex.DecodeString(seed)
		if err != nil || len(b) != ed25519.SeedSize {
			return nil, errors.New("--creator must be a 32-byte hex ed25519 seed")
		}
		priv = ed25519.NewKeyFromSeed(b)
	}
	pub := priv.Public().(ed25519.PublicKey)
	return core.SigningMember{CreatorId: []byte("brightchain-cli"), PublicKey: pub, PrivateKey: priv}, nil
}

// ---------------------------------------------------------------------------
// Controller helpers
// ---------------------------------------------------------------------------

func storageBail(err error) {
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}

func blockSizeFlag() core.BlockSize {
	bs := core.BlockSize(storageFlags.blockSize)
	if !core.IsValidBlockSize(bs) {
		log.Fatalf("--block-size %d is not one of the enumerated block sizes", storageFlags.blockSize)
	}
	return bs
}

func durabilityFlag() core.DurabilityLevel {
	switch strings.ToLower(storageFlags.durability) {
	case "", "standard":
		return core.DurabilityStandard
	case "ephemeral":
		return core.DurabilityEphemeral
	case "high":
		return core.DurabilityHigh
	case "critical":
		return core.DurabilityCritical
	default:
		log.Fatalf("--durability must be one of ephemeral|standard|high|critical, got %q", storageFlags.durability)
		return core.DurabilityStandard
	}
}

func putOptions() core.PutOptions {
	return core.PutOptions{DurabilityLevel: durabilityFlag(), PoolId: storageFlags.poolId}
}

func parseAddresses(csv string) ([]core.BlockId, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, errors.New("--addresses is required")
	}
	parts := strings.Split(csv, ",")
	ids := make([]core.BlockId, len(parts))
	for i, p := range parts {
		id, err := core.BlockIdFromHex(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("address %d: %w", i, err)
		}
		ids[i] = id
	}
	return ids, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// ---------------------------------------------------------------------------
// Controllers – block store primitives
// ---------------------------------------------------------------------------

func putHandler(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")
	mime, _ := cmd.Flags().GetString("mime")
	if file == "" {
		_ = cmd.Usage()
		storageBail(errors.New("--file is required"))
	}

	data, err := os.ReadFile(file)
	storageBail(err)

	bs := blockSizeFlag()
	chunks, err := core.ChunkData(data, bs)
	storageBail(err)

	opts := putOptions()
	ids := make([]core.BlockId, len(chunks))
	for i, chunk := range chunks {
		block, err := store.Put(chunk, core.BlockTypeRaw, core.DataTypeFileChunk, opts)
		storageBail(err)
		ids[i] = block.IdChecksum
	}

	super := core.NewSuperCBLService(core.NewCBLWhitener(store))
	cfg := core.SuperCBLConfig{
		BlockSize:    bs,
		TupleSize:    3,
		FileName:     filepathBase(file),
		MimeType:     mime,
		OriginalSize: uint64(len(data)),
		Durability:   durabilityFlag(),
	}
	magnet, err := super.CreateHierarchical(ids, cfg, signer, crypto)
	storageBail(err)

	fmt.Printf("stored %d block(s) in %d chunk(s)\n", len(ids), len(chunks))
	fmt.Printf("magnet: %s\n", magnet)
}

func filepathBase(p string) string {
	i := strings.LastIndexAny(p, "/\\")
	if i < 0 {
		return p
	}
	return p[i+1:]
}

func getHandler(cmd *cobra.Command, args []string) {
	magnet, _ := cmd.Flags().GetString("magnet")
	out, _ := cmd.Flags().GetString("out")
	if magnet == "" {
		_ = cmd.Usage()
		storageBail(errors.New("--magnet is required"))
	}
	super := core.NewSuperCBLService(core.NewCBLWhitener(store))
	data, err := super.AssembleFile(magnet)
	storageBail(err)
	storageBail(writeOutput(out, data))
}

func deleteHandler(cmd *cobra.Command, args []string) {
	idHex, _ := cmd.Flags().GetString("id")
	if idHex == "" {
		_ = cmd.Usage()
		storageBail(errors.New("--id is required"))
	}
	id, err := core.BlockIdFromHex(idHex)
	storageBail(err)
	storageBail(store.DeleteData(id))
	fmt.Printf("deleted %s\n", id.Hex())
}

func brightenHandler(cmd *cobra.Command, args []string) {
	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		_ = cmd.Usage()
		storageBail(errors.New("--file is required"))
	}
	data, err := os.ReadFile(file)
	storageBail(err)

	bs := blockSizeFlag()
	padded, err := core.ZeroPad(data, int(bs))
	storageBail(err)

	result, err := store.BrightenBlock(padded, putOptions())
	storageBail(err)

	fmt.Printf("original:   %s\n", result.OriginalBlockId.Hex())
	fmt.Printf("randomizer: %s\n", result.RandomBlockIds[0].Hex())
	fmt.Printf("brightened: %s\n", result.BrightenedBlockId.Hex())
}

// ---------------------------------------------------------------------------
// Controllers – CBL codec
// ---------------------------------------------------------------------------

func cblEncodeHandler(cmd *cobra.Command, args []string) {
	addrCSV, _ := cmd.Flags().GetString("addresses")
	fileName, _ := cmd.Flags().GetString("filename")
	mimeType, _ := cmd.Flags().GetString("mime")
	tupleSize, _ := cmd.Flags().GetInt("tuple-size")
	originalLen, _ := cmd.Flags().GetInt64("original-len")
	out, _ := cmd.Flags().GetString("out")

	ids, err := parseAddresses(addrCSV)
	storageBail(err)

	bs := blockSizeFlag()
	cbl := &core.CBL{
		BlockSize:       bs,
		TupleSize:       uint8(tupleSize),
		OriginalDataLen: uint64(originalLen),
		Addresses:       ids,
		FileName:        fileName,
		MimeType:        mimeType,
	}
	encoded, err := core.Encode(cbl, signer, crypto)
	storageBail(err)
	storageBail(writeOutput(out, encoded))
}

func cblDecodeHandler(cmd *cobra.Command, args []string) {
	in, _ := cmd.Flags().GetString("in")
	if in == "" {
		_ = cmd.Usage()
		storageBail(errors.New("--in is required"))
	}
	buf, err := readInput(in)
	storageBail(err)

	cbl, err := core.Decode(buf)
	storageBail(err)

	fmt.Printf("version:    %d\n", cbl.Version)
	fmt.Printf("blockSize:  %d\n", cbl.BlockSize)
	fmt.Printf("tupleSize:  %d\n", cbl.TupleSize)
	fmt.Printf("originalLen: %d\n", cbl.OriginalDataLen)
	fmt.Printf("fileName:   %s\n", cbl.FileName)
	fmt.Printf("mimeType:   %s\n", cbl.MimeType)
	fmt.Printf("addresses (%d):\n", len(cbl.Addresses))
	for _, a := range cbl.Addresses {
		fmt.Printf("  %s\n", a.Hex())
	}
}

// ---------------------------------------------------------------------------
// Controllers – Super-CBL
// ---------------------------------------------------------------------------

func superCblSplitHandler(cmd *cobra.Command, args []string) {
	addrCSV, _ := cmd.Flags().GetString("addresses")
	fileName, _ := cmd.Flags().GetString("filename")
	mimeType, _ := cmd.Flags().GetString("mime")
	tupleSize, _ := cmd.Flags().GetInt("tuple-size")
	originalLen, _ := cmd.Flags().GetInt64("original-len")

	ids, err := parseAddresses(addrCSV)
	storageBail(err)

	cfg := core.SuperCBLConfig{
		BlockSize:    blockSizeFlag(),
		TupleSize:    uint8(tupleSize),
		FileName:     fileName,
		MimeType:     mimeType,
		OriginalSize: uint64(originalLen),
		Durability:   durabilityFlag(),
	}
	super := core.NewSuperCBLService(core.NewCBLWhitener(store))
	magnet, err := super.CreateHierarchical(ids, cfg, signer, crypto)
	storageBail(err)
	fmt.Printf("magnet: %s\n", magnet)
}

func superCblReconstructHandler(cmd *cobra.Command, args []string) {
	magnet, _ := cmd.Flags().GetString("magnet")
	if magnet == "" {
		_ = cmd.Usage()
		storageBail(errors.New("--magnet is required"))
	}
	super := core.NewSuperCBLService(core.NewCBLWhitener(store))
	ids, err := super.Reconstruct(magnet)
	storageBail(err)
	fmt.Printf("addresses (%d):\n", len(ids))
	for _, id := range ids {
		fmt.Printf("  %s\n", id.Hex())
	}
}

// ---------------------------------------------------------------------------
// CLI definitions (TOP section)
// ---------------------------------------------------------------------------

var RootCmd = &cobra.Command{
	Use:              "brightchain",
	Short:            "Content-addressed, owner-free block store with FEC and hierarchical manifests",
	PersistentPreRun: initStorageMiddleware,
}

var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Chunk a file, store its blocks, and build a (Super-)CBL manifest",
	Run:   putHandler,
}

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Assemble the file referenced by a CBL/Super-CBL magnet URL",
	Run:   getHandler,
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a stored block by id",
	Run:   deleteHandler,
}

var brightenCmd = &cobra.Command{
	Use:   "brighten",
	Short: "XOR-whiten a single block against a randomizer",
	Run:   brightenHandler,
}

var cblCmd = &cobra.Command{
	Use:   "cbl",
	Short: "CBL manifest codec operations",
}

var cblEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a signed CBL manifest from a list of block addresses",
	Run:   cblEncodeHandler,
}

var cblDecodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a CBL manifest buffer",
	Run:   cblDecodeHandler,
}

var superCblCmd = &cobra.Command{
	Use:   "super-cbl",
	Short: "Hierarchical manifest operations for address lists too large for one CBL",
}

var superCblSplitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split an address list into Sub-CBLs, nesting Super-CBL levels as needed",
	Run:   superCblSplitHandler,
}

var superCblReconstructCmd = &cobra.Command{
	Use:   "reconstruct",
	Short: "Walk a Super-CBL manifest tree back into its flat address list",
	Run:   superCblReconstructHandler,
}

func init() {
	RootCmd.PersistentFlags().Int("block-size", 4096, "Block size in bytes (BRIGHTCHAIN_BLOCK_SIZE)")
	RootCmd.PersistentFlags().String("durability", "standard", "ephemeral|standard|high|critical (BRIGHTCHAIN_DURABILITY)")
	RootCmd.PersistentFlags().String("pool", "", "Pool id recorded in each stored block's metadata (BRIGHTCHAIN_POOL)")
	RootCmd.PersistentFlags().String("creator", "", "Hex-encoded 32-byte ed25519 seed identifying the CBL signer (BRIGHTCHAIN_CREATOR_SEED)")

	putCmd.Flags().String("file", "", "Path to file to ingest [required]")
	putCmd.Flags().String("mime", "", "MIME type recorded in the manifest's extended header")

	getCmd.Flags().String("magnet", "", "CBL/Super-CBL magnet URL [required]")
	getCmd.Flags().String("out", "-", "Output file or '-' for STDOUT")

	deleteCmd.Flags().String("id", "", "Hex block id to delete [required]")

	brightenCmd.Flags().String("file", "", "Path to a file of at most one block's worth of bytes [required]")

	cblEncodeCmd.Flags().String("addresses", "", "Comma-separated hex block ids [required]")
	cblEncodeCmd.Flags().String("filename", "", "File name recorded in the extended header")
	cblEncodeCmd.Flags().String("mime", "", "MIME type recorded in the extended header")
	cblEncodeCmd.Flags().Int("tuple-size", 3, "Tuple size recorded in the manifest (3-255)")
	cblEncodeCmd.Flags().Int64("original-len", 0, "Original reconstructed file length in bytes")
	cblEncodeCmd.Flags().String("out", "-", "Output file or '-' for STDOUT")

	cblDecodeCmd.Flags().String("in", "", "Path to an encoded CBL buffer, or '-' for STDIN [required]")

	superCblSplitCmd.Flags().String("addresses", "", "Comma-separated hex block ids [required]")
	superCblSplitCmd.Flags().String("filename", "", "File name recorded in the manifest")
	superCblSplitCmd.Flags().String("mime", "", "MIME type recorded in the manifest")
	superCblSplitCmd.Flags().Int("tuple-size", 3, "Tuple size recorded in the manifest (3-255)")
	superCblSplitCmd.Flags().Int64("original-len", 0, "Original reconstructed file length in bytes [required]")

	superCblReconstructCmd.Flags().String("magnet", "", "Root magnet URL [required]")

	cblCmd.AddCommand(cblEncodeCmd)
	cblCmd.AddCommand(cblDecodeCmd)
	superCblCmd.AddCommand(superCblSplitCmd)
	superCblCmd.AddCommand(superCblReconstructCmd)

	RootCmd.AddCommand(putCmd)
	RootCmd.AddCommand(getCmd)
	RootCmd.AddCommand(deleteCmd)
	RootCmd.AddCommand(brightenCmd)
	RootCmd.AddCommand(cblCmd)
	RootCmd.AddCommand(superCblCmd)
}

// ---------------------------------------------------------------------------
// Helpers – env handling
// ---------------------------------------------------------------------------

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func resolveStringFlag(cmd *cobra.Command, name string, target *string, fallback string) {
	v, _ := cmd.Flags().GetString(name)
	switch {
	case cmd.Flags().Changed(name):
		*target = v
	case fallback != "":
		*target = fallback
	default:
		*target = v
	}
}

func resolveIntFlag(cmd *cobra.Command, name string, target *int, fallback int) {
	if cmd.Flags().Changed(name) {
		*target, _ = cmd.Flags().GetInt(name)
	} else {
		*target = fallback
	}
}

// ---------------------------------------------------------------------------
// Consolidated route export (BOTTOM) — importable by cmd/brightchain.
// ---------------------------------------------------------------------------

// StorageRoute is the root brightchain command, kept under its historical
// name for import-site stability.
var StorageRoute = RootCmd

// ---------------------------------------------------------------------------
// END cmd/cli/storage.go
// ---------------------------------------------------------------------------

package unity

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"
)

type Asset struct {
	GUID string
	Path string
}

func (a *Asset) Ext() string {
	return strings.ToLower(path.Ext(a.Path))
}

func (a *Asset) Name() string {
	base := path.Base(a.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}

type Assets interface {
	GetAsset(guid string) *Asset
	GetAssetByPath(assetPath string) *Asset
	GetAllAssets() []*Asset
	Open(assetPath string) (fs.File, error)
	OpenMeta(assetPath string) (fs.File, error)
	Close() error
}

// OpenAssets opens Assets dir.
func OpenAssets(assetsDir string) (Assets, error) {
	return scanAssets(assetsDir)
}

// OpenPackage opens .unitypackage file or dir.
func OpenPackage(packagePath string) (Assets, error) {
	stat, err := os.Stat(packagePath)
	if err != nil {
		return nil, err
	}
	if stat.IsDir() {
		return scanPackage(packagePath, false)
	}
	tmpDir, err := os.MkdirTemp("", "avatarconv_assets_")
	if err != nil {
		return nil, err
	}
	err = extractPackage(packagePath, tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		return nil, err
	}
	return scanPackage(tmpDir, true)
}

// ReadAsset reads the whole content of an asset.
func ReadAsset(assets Assets, asset *Asset) ([]byte, error) {
	r, err := assets.Open(asset.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// LoadMetaFile reads the .meta of an asset.
func LoadMetaFile(assets Assets, asset *Asset) (*MetaFile, error) {
	r, err := assets.OpenMeta(asset.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var meta MetaFile
	if err := yaml.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%s.meta: %w", asset.Path, err)
	}
	return &meta, nil
}

type assetIndex struct {
	Assets       map[string]*Asset
	AssetsByPath map[string]*Asset
}

func (a *assetIndex) add(asset *Asset) {
	a.Assets[asset.GUID] = asset
	a.AssetsByPath[asset.Path] = asset
}

func (a *assetIndex) GetAsset(guid string) *Asset {
	return a.Assets[guid]
}

func (a *assetIndex) GetAssetByPath(path string) *Asset {
	return a.AssetsByPath[path]
}

func (a *assetIndex) GetAllAssets() []*Asset {
	var assets []*Asset
	for _, a := range a.Assets {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return assets
}

type packageFs struct {
	assetIndex
	PackageDir string
	Temp       bool
}

func (a *packageFs) open(path, name string) (fs.File, error) {
	asset := a.AssetsByPath[path]
	if asset == nil {
		return nil, fs.ErrNotExist
	}
	return os.Open(filepath.Join(a.PackageDir, asset.GUID, name))
}

func (a *packageFs) Open(path string) (fs.File, error) {
	return a.open(path, "asset")
}

func (a *packageFs) OpenMeta(path string) (fs.File, error) {
	return a.open(path, "asset.meta")
}

func (a *packageFs) Close() error {
	if a.Temp {
		return os.RemoveAll(a.PackageDir)
	}
	return nil
}

func scanPackage(packageDir string, tmp bool) (*packageFs, error) {
	ent, err := os.ReadDir(packageDir)
	if err != nil {
		return nil, err
	}

	pkg := &packageFs{
		Temp:       tmp,
		PackageDir: packageDir,
		assetIndex: assetIndex{Assets: map[string]*Asset{}, AssetsByPath: map[string]*Asset{}},
	}
	for _, f := range ent {
		if !f.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(packageDir, f.Name(), "pathname"))
		if err != nil {
			continue
		}
		// pathname may have a second line with a hash.
		p, _, _ := strings.Cut(string(b), "\n")
		pkg.add(&Asset{GUID: f.Name(), Path: strings.TrimSpace(p)})
	}
	return pkg, nil
}

func extractPackage(pacakage, dst string) error {
	r, err := os.Open(pacakage)
	if err != nil {
		return err
	}
	defer r.Close()
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gzr.Close()
	tr := tar.NewReader(gzr)

	for {
		header, err := tr.Next()
		switch {

		case err == io.EOF:
			return nil

		case err != nil:
			return err

		case header == nil:
			continue
		}

		name := filepath.Join(dst, header.Name)
		if !strings.HasPrefix(name, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fmt.Errorf("invalid entry: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(name, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
				return err
			}
			f, err := os.Create(name)
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			f.Close()
		}
	}
}

// assetsFs serves a project Assets dir. Asset paths start with the dir name ("Assets/...").
type assetsFs struct {
	assetIndex
	BaseDir string
}

func (a *assetsFs) Open(path string) (fs.File, error) {
	return os.Open(filepath.Join(a.BaseDir, filepath.FromSlash(path)))
}

func (a *assetsFs) OpenMeta(path string) (fs.File, error) {
	return a.Open(path + ".meta")
}

func (a *assetsFs) Close() error {
	return nil
}

func scanAssets(assetsDir string) (*assetsFs, error) {
	assetsDir = filepath.Clean(assetsDir)
	assets := &assetsFs{
		BaseDir:    filepath.Dir(assetsDir),
		assetIndex: assetIndex{Assets: map[string]*Asset{}, AssetsByPath: map[string]*Asset{}},
	}
	err := filepath.WalkDir(assetsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".meta") {
			return nil
		}
		rel, err := filepath.Rel(assets.BaseDir, strings.TrimSuffix(p, ".meta"))
		if err != nil {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		var meta MetaFile
		if yaml.Unmarshal(b, &meta) != nil || meta.GUID == "" {
			return nil
		}
		assets.add(&Asset{GUID: meta.GUID, Path: filepath.ToSlash(rel)})
		return nil
	})
	return assets, err
}

package backend

// PackageInfo is the data the package-description layer writes for a
// linked backend. Rendering the description file is not done here.
type PackageInfo struct {
	// Requires are package-description dependencies ("tbb >= 2022.0.0").
	Requires []string `json:"requires,omitempty"`
	// Cflags are consumer compile flags ("-DBLAKE3_USE_TBB").
	Cflags []string `json:"cflags,omitempty"`
	// Libs are private link libraries ("-lstdc++").
	Libs []string `json:"libs,omitempty"`
}

// Packages returns the package-description data for d. A decision that is
// not linked contributes nothing.
func (n *Negotiator) Packages(d Decision) PackageInfo {
	if d.Status != Linked {
		return PackageInfo{}
	}
	var info PackageInfo
	if name := n.spec.PkgConfigName; name != "" {
		req := name
		if v := d.ResolvedVersion; v != "" {
			req += " >= " + v
		}
		info.Requires = append(info.Requires, req)
	}
	for _, def := range d.ExtraDefinitions {
		info.Cflags = append(info.Cflags, "-D"+def)
	}
	if d.StdlibLinkHint != "" {
		info.Libs = append(info.Libs, "-l"+d.StdlibLinkHint)
	}
	return info
}

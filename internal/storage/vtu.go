package storage

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/aeromodal/internal/aero"
	"github.com/san-kum/aeromodal/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

const vtkQuad = 9

type vtkFile struct {
	XMLName   xml.Name `xml:"VTKFile"`
	Type      string   `xml:"type,attr"`
	Version   string   `xml:"version,attr"`
	ByteOrder string   `xml:"byte_order,attr"`
	Grid      vtkGrid  `xml:"UnstructuredGrid"`
}

type vtkGrid struct {
	Piece vtkPiece `xml:"Piece"`
}

type vtkPiece struct {
	NumberOfPoints int          `xml:"NumberOfPoints,attr"`
	NumberOfCells  int          `xml:"NumberOfCells,attr"`
	PointData      vtkData      `xml:"PointData"`
	CellData       vtkData      `xml:"CellData"`
	Points         vtkArrayList `xml:"Points"`
	Cells          vtkArrayList `xml:"Cells"`
}

type vtkData struct {
	Scalars string     `xml:"Scalars,attr,omitempty"`
	Arrays  []vtkArray `xml:"DataArray"`
}

type vtkArrayList struct {
	Arrays []vtkArray `xml:"DataArray"`
}

type vtkArray struct {
	Type       string `xml:"type,attr"`
	Name       string `xml:"Name,attr,omitempty"`
	Components int    `xml:"NumberOfComponents,attr,omitempty"`
	Format     string `xml:"format,attr"`
	Data       string `xml:",chardata"`
}

// WriteZetaVTU writes one VTK unstructured grid per lattice surface, named
// <root>_<surface>.vtu, and returns the file names. Points are ordered
// spanwise-major; the point displacement magnitude is measured against ref.
func WriteZetaVTU(root string, zeta, ref *aero.Mesh) ([]string, error) {
	if err := zeta.Validate(); err != nil {
		return nil, err
	}
	if len(ref.Surfaces) != len(zeta.Surfaces) {
		return nil, dynamo.Errorf(dynamo.ErrDimensionMismatch, "vtu", "ref", "%d surfaces, lattice has %d",
			len(ref.Surfaces), len(zeta.Surfaces))
	}

	var files []string
	for i := range zeta.Surfaces {
		s, r := &zeta.Surfaces[i], &ref.Surfaces[i]
		if r.M != s.M || r.N != s.N {
			return nil, dynamo.IndexError(dynamo.ErrDimensionMismatch, "vtu", "surface", i,
				"reference is %dx%d, lattice is %dx%d", r.M, r.N, s.M, s.N)
		}
		name := fmt.Sprintf("%s_%02d.vtu", root, i)
		if err := writeSurfaceVTU(name, i, s, r); err != nil {
			return nil, err
		}
		files = append(files, name)
	}
	return files, nil
}

func writeSurfaceVTU(path string, id int, s, ref *aero.Surface) error {
	m, n := s.M, s.N
	var coords, nodeID, mag strings.Builder
	for in := 0; in <= n; in++ {
		for im := 0; im <= m; im++ {
			p := s.Zeta[im][in]
			fmt.Fprintf(&coords, "%s %s %s ", ff(p.X), ff(p.Y), ff(p.Z))
			fmt.Fprintf(&nodeID, "%d ", in*(m+1)+im)
			fmt.Fprintf(&mag, "%s ", ff(r3.Norm(r3.Sub(p, ref.Zeta[im][in]))))
		}
	}

	var conn, offsets, types, panelID, surfID strings.Builder
	cell := 0
	for in := 0; in < n; in++ {
		for im := 0; im < m; im++ {
			k := in*(m+1) + im
			fmt.Fprintf(&conn, "%d %d %d %d ", k, k+1, k+m+2, k+m+1)
			fmt.Fprintf(&offsets, "%d ", 4*(cell+1))
			fmt.Fprintf(&types, "%d ", vtkQuad)
			fmt.Fprintf(&panelID, "%d ", cell)
			fmt.Fprintf(&surfID, "%d ", id)
			cell++
		}
	}

	doc := vtkFile{
		Type:      "UnstructuredGrid",
		Version:   "0.1",
		ByteOrder: "LittleEndian",
		Grid: vtkGrid{Piece: vtkPiece{
			NumberOfPoints: (m + 1) * (n + 1),
			NumberOfCells:  cell,
			PointData: vtkData{Scalars: "n_id", Arrays: []vtkArray{
				{Type: "Int64", Name: "n_id", Format: "ascii", Data: nodeID.String()},
				{Type: "Float64", Name: "point_displacement_magnitude", Format: "ascii", Data: mag.String()},
			}},
			CellData: vtkData{Scalars: "panel_n_id", Arrays: []vtkArray{
				{Type: "Int64", Name: "panel_n_id", Format: "ascii", Data: panelID.String()},
				{Type: "Int64", Name: "panel_surface_id", Format: "ascii", Data: surfID.String()},
			}},
			Points: vtkArrayList{Arrays: []vtkArray{
				{Type: "Float64", Components: 3, Format: "ascii", Data: coords.String()},
			}},
			Cells: vtkArrayList{Arrays: []vtkArray{
				{Type: "Int64", Name: "connectivity", Format: "ascii", Data: conn.String()},
				{Type: "Int64", Name: "offsets", Format: "ascii", Data: offsets.String()},
				{Type: "UInt8", Name: "types", Format: "ascii", Data: types.String()},
			}},
		}},
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.WriteString(xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(file)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Package menuaccess implements the per-user authorisation filter over the
// app's static menu tree and fixed tab set. Everything here is pure and
// in-memory: absence of access is a normal outcome, never an error.
package menuaccess

// MenuNode is one entry in the static declarative menu tree. A node is
// either a leaf (Route set, no Children) or a section header with exactly
// one level of leaf children - never both, never neither.
type MenuNode struct {
	Icon     string     `json:"icon"`
	Title    string     `json:"title"`
	Route    string     `json:"route,omitempty"`
	Children []MenuNode `json:"children,omitempty"`
}

// IsLeaf reports whether the node navigates directly rather than expanding.
func (n MenuNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Fixed tab identifiers for the main tab bar. TabAccount is always visible
// regardless of grants or privilege level.
const (
	TabHome     = "home"
	TabProducts = "products"
	TabOrders   = "orders"
	TabForecast = "forecast"
	TabAccount  = "account"
)

// FixedTabs returns the tab bar ids in display order.
func FixedTabs() []string {
	return []string{TabHome, TabProducts, TabOrders, TabForecast, TabAccount}
}

// DefaultMenuTree returns the static report menu shown on the account tab.
func DefaultMenuTree() []MenuNode {
	return []MenuNode{
		{Icon: "person.3", Title: "Customer", Route: "customers"},
		{Icon: "person.text.rectangle", Title: "Pendaftaran Klinik", Children: []MenuNode{
			{Icon: "person.badge.plus", Title: "Laporan Registrasi Pasien", Route: "lapregistrasipasien"},
			{Icon: "person.2", Title: "Laporan Kunjungan Pasien", Route: "lapkunjunganpasien"},
		}},
		{Icon: "stethoscope", Title: "Pelayanan Klinik", Children: []MenuNode{
			{Icon: "calendar.badge.clock", Title: "Laporan Janji Dengan Dokter", Route: "lapjanjidengandokter"},
		}},
		{Icon: "creditcard", Title: "Billing Kasir", Children: []MenuNode{
			{Icon: "dollarsign.circle", Title: "Laporan Piutang Klinik", Route: "lappiutangklinik"},
			{Icon: "banknote", Title: "Laporan Pembayaran Kasir", Route: "lappembayarankasir"},
			{Icon: "cart", Title: "Laporan Penjualan Obat Klinik", Route: "lappenjualanobatklinik"},
			{Icon: "doc.text.magnifyingglass", Title: "Laporan Tagihan Jaminan", Route: "laptagihanjaminan"},
			{Icon: "stethoscope", Title: "Laporan Pendapatan Petugas Medis", Route: "lappendapatanpetugasmedis"},
		}},
		{Icon: "pills", Title: "Laporan Apotek", Children: []MenuNode{
			{Icon: "cart.fill", Title: "Laporan Pembelian", Route: "lappembelianobat"},
			{Icon: "creditcard.circle", Title: "Laporan Hutang Obat", Route: "laphutangobat"},
			{Icon: "bag", Title: "Laporan Penjualan Obat", Route: "lappenjualanobat"},
			{Icon: "dollarsign.arrow.circlepath", Title: "Laporan Piutang Obat", Route: "lappiutangobat"},
			{Icon: "exclamationmark.triangle", Title: "Laporan Obat Stok Habis", Route: "lapobatstokhabis"},
			{Icon: "calendar.badge.exclamationmark", Title: "Laporan Obat Expired", Route: "lapobatexpired"},
			{Icon: "star.fill", Title: "Laporan Obat Terlaris", Route: "lapobatterlaris"},
			{Icon: "shippingbox", Title: "Laporan Stok Opname", Route: "lapstokopname"},
			{Icon: "square.stack.3d.up", Title: "Laporan Stok Obat", Route: "lapstokobat"},
			{Icon: "arrow.left.arrow.right", Title: "Laporan Pergantian Shift", Route: "lappergantianshift"},
		}},
		{Icon: "chart.bar.doc.horizontal", Title: "Laporan Keuangan", Children: []MenuNode{
			{Icon: "doc.text", Title: "Laporan Neraca Umum", Route: "lapneracaumum"},
			{Icon: "chart.line.uptrend.xyaxis", Title: "Laporan Laba Rugi", Route: "laplabarugi"},
		}},
		{Icon: "gearshape.2", Title: "Sistem", Children: []MenuNode{
			{Icon: "person.2.circle", Title: "Manajemen User", Route: "lapmanajemenuser"},
			{Icon: "building.columns", Title: "Pengaturan Bank", Route: "lappengaturanbank"},
		}},
	}
}

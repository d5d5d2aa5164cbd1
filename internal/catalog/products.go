package catalog

func size(v float64) *float64 { return &v }

// bengtssons is the Bengtssons Trävaror price list. Prices are SEK per unit;
// UnitSize is metres or square metres per unit, nil for per-item goods.
var bengtssons = map[string]Product{
	// Virke / trä
	"regel_45x45_3m":            {Price: 55, UnitSize: size(3.0)},
	"regel_45x45_3.6m":          {Price: 65, UnitSize: size(3.6)},
	"regel_45x45_4.2m":          {Price: 75, UnitSize: size(4.2)},
	"regel_45x45_4.8m":          {Price: 85, UnitSize: size(4.8)},
	"regel_45x70_3m":            {Price: 75, UnitSize: size(3.0)},
	"regel_45x70_3.6m":          {Price: 90, UnitSize: size(3.6)},
	"regel_45x70_4.2m":          {Price: 105, UnitSize: size(4.2)},
	"regel_45x70_4.8m":          {Price: 120, UnitSize: size(4.8)},
	"regel_45x95_3m":            {Price: 95, UnitSize: size(3.0)},
	"regel_45x95_3.6m":          {Price: 115, UnitSize: size(3.6)},
	"regel_45x95_4.2m":          {Price: 135, UnitSize: size(4.2)},
	"regel_45x95_4.8m":          {Price: 155, UnitSize: size(4.8)},
	"regel_45x120_3m":           {Price: 115, UnitSize: size(3.0)},
	"regel_45x120_3.6m":         {Price: 140, UnitSize: size(3.6)},
	"regel_45x120_4.2m":         {Price: 160, UnitSize: size(4.2)},
	"regel_45x120_4.8m":         {Price: 185, UnitSize: size(4.8)},
	"regel_45x145_3m":           {Price: 130, UnitSize: size(3.0)},
	"regel_45x145_3.6m":         {Price: 155, UnitSize: size(3.6)},
	"regel_45x145_4.2m":         {Price: 180, UnitSize: size(4.2)},
	"regel_45x145_4.8m":         {Price: 210, UnitSize: size(4.8)},
	"regel_45x170_3m":           {Price: 150, UnitSize: size(3.0)},
	"regel_45x170_3.6m":         {Price: 180, UnitSize: size(3.6)},
	"regel_45x170_4.2m":         {Price: 210, UnitSize: size(4.2)},
	"regel_45x170_4.8m":         {Price: 240, UnitSize: size(4.8)},
	"regel_45x195_3m":           {Price: 175, UnitSize: size(3.0)},
	"regel_45x195_4.8m":         {Price: 280, UnitSize: size(4.8)},
	"bräda_22x95_3m":            {Price: 45, UnitSize: size(3.0)},
	"bräda_22x120_3m":           {Price: 55, UnitSize: size(3.0)},
	"bräda_22x145_3m":           {Price: 65, UnitSize: size(3.0)},
	"bräda_22x145_4.8m":         {Price: 105, UnitSize: size(4.8)},
	"bräda_22x170_3m":           {Price: 75, UnitSize: size(3.0)},
	"regel_tryckimp_45x95_3m":   {Price: 145, UnitSize: size(3.0)},
	"regel_tryckimp_45x95_4.2m": {Price: 200, UnitSize: size(4.2)},
	"regel_tryckimp_45x145_3m":  {Price: 195, UnitSize: size(3.0)},
	"bräda_tryckimp_22x120_3m":  {Price: 95, UnitSize: size(3.0)},

	// Skivmaterial
	"plywood_12mm":          {Price: 349, UnitSize: size(2.0)},
	"plywood_15mm":          {Price: 429, UnitSize: size(2.0)},
	"plywood_18mm":          {Price: 499, UnitSize: size(2.0)},
	"osb_11mm":              {Price: 219, UnitSize: size(2.0)},
	"osb_18mm":              {Price: 329, UnitSize: size(2.0)},
	"masonit_3mm":           {Price: 79, UnitSize: size(2.0)},
	"spånskiva_16mm":        {Price: 189, UnitSize: size(2.0)},
	"spånskiva_22mm":        {Price: 249, UnitSize: size(2.0)},
	"gipsskiva_13mm":        {Price: 109, UnitSize: size(2.0)},
	"gipsskiva_13mm_våtrum": {Price: 159, UnitSize: size(2.0)},

	// Isolering
	"isolering_mineralull_45mm":  {Price: 289, UnitSize: size(5.5)},
	"isolering_mineralull_95mm":  {Price: 449, UnitSize: size(4.3)},
	"isolering_mineralull_120mm": {Price: 529, UnitSize: size(3.4)},
	"isolering_mineralull_145mm": {Price: 629, UnitSize: size(2.7)},
	"isolering_mineralull_195mm": {Price: 749, UnitSize: size(2.0)},
	"isolering_glasull_95mm":     {Price: 399, UnitSize: size(4.3)},
	"isolering_träfiber_45mm":    {Price: 549, UnitSize: size(2.7)},
	"isolering_träfiber_145mm":   {Price: 1249, UnitSize: size(1.8)},

	// Tak / panel
	"takpapp_rulle_10m":        {Price: 349, UnitSize: size(10)},
	"takpapp_rulle_20m":        {Price: 649, UnitSize: size(20)},
	"underlagspapp_rulle":      {Price: 289, UnitSize: size(15)},
	"takläkt_25x38_4.2m":       {Price: 35},
	"takläkt_25x50_4.2m":       {Price: 45},
	"råspont_21x95_3m":         {Price: 69},
	"råspont_21x120_3m":        {Price: 89},
	"råspont_21x145_3m":        {Price: 109},
	"råspontlucka_20x540_3.6m": {Price: 159, UnitSize: size(1.94)},
	"råspontlucka_20x540_4.2m": {Price: 189, UnitSize: size(2.27)},
	"råspontlucka_20x540_4.8m": {Price: 215, UnitSize: size(2.59)},
	"råspontlucka_23x540_3.6m": {Price: 189, UnitSize: size(1.94)},
	"råspontlucka_23x540_4.2m": {Price: 225, UnitSize: size(2.27)},
	"råspontlucka_23x540_4.8m": {Price: 259, UnitSize: size(2.59)},
	"ytterpanel_14x120_3m":     {Price: 95},
	"ytterpanel_14x145_3m":     {Price: 115},
	"innerpanel_14x95_3m":      {Price: 75},
	"innerpanel_14x120_3m":     {Price: 89},

	// Golv
	"golvspånskiva_22mm":   {Price: 159, UnitSize: size(1.1)},
	"parkettgolv_ek_3stav": {Price: 449, UnitSize: size(2.2)},
	"parkettgolv_ask":      {Price: 529, UnitSize: size(2.2)},
	"laminatgolv_ek":       {Price: 249, UnitSize: size(2.0)},
	"laminatgolv_grå":      {Price: 219, UnitSize: size(2.0)},
	"undergolv_3mm":        {Price: 89, UnitSize: size(10.0)},

	// Lister
	"sockel_vit_12x56_2.4m":  {Price: 79},
	"sockel_vit_14x70_2.4m":  {Price: 99},
	"foder_vit_12x56_2.2m":   {Price: 69},
	"taklist_vit_21x21_2.4m": {Price: 49},

	// Fästdon
	"spik_blank_50mm_5kg":      {Price: 249},
	"spik_blank_75mm_5kg":      {Price: 279},
	"spik_varmförz_75mm_5kg":   {Price: 349},
	"skruv_trä_4x40_500st":     {Price: 199},
	"skruv_trä_4x50_500st":     {Price: 219},
	"skruv_trä_5x60_200st":     {Price: 189},
	"skruv_trä_5x80_200st":     {Price: 219},
	"skruv_trä_6x100_100st":    {Price: 179},
	"skruv_trä_6x120_100st":    {Price: 199},
	"skruv_gips_3.5x35_1000st": {Price: 149},
	"skruv_gips_3.5x45_500st":  {Price: 129},
	"skruv_trall_4.5x55_250st": {Price: 249},
	"skruv_trall_4.5x65_250st": {Price: 279},

	// Beslag
	"vinkel_50x50x40": {Price: 12},
	"vinkel_70x70x55": {Price: 18},
	"vinkel_90x90x65": {Price: 25},
	"balksko_45x145":  {Price: 35},
	"balksko_45x195":  {Price: 45},
	"sparrplåt":       {Price: 29},
	"universalankare": {Price: 22},

	// Övrigt
	"byggplast_0.2mm_50kvm": {Price: 549, UnitSize: size(50)},
	"diffusionsspärr_25kvm": {Price: 449, UnitSize: size(25)},
	"trälim_750ml":          {Price: 89},
	"trälim_3l":             {Price: 249},
	"fogskum_750ml":         {Price: 79},
	"betong_torr_25kg":      {Price: 79},
	"betong_snabb_25kg":     {Price: 119},
	"puts_vägg_25kg":        {Price: 149},
}

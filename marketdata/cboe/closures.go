package cboe

// UnscheduledClosures lists days the exchange closed outside its published
// holiday schedule. Sources: NYSE closings history, CBOE RG12-150.
var UnscheduledClosures = []string{
	"2007-01-02", // National Day of Mourning, President Gerald R. Ford
	"2012-10-29", // Hurricane Sandy
	"2012-10-30", // Hurricane Sandy
}

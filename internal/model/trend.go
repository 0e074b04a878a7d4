package model

// Trend summarizes one urban agglomeration across census years.
type Trend struct {
	UANo            int      `json:"ua_no" csv:"ua_no"`
	UA              string   `json:"ua" csv:"ua"`
	FirstYear       int      `json:"first_year" csv:"first_year"`
	LastYear        int      `json:"last_year" csv:"last_year"`
	Years           int      `json:"years" csv:"years"`
	RatioPoints     int      `json:"ratio_points" csv:"ratio_points"`
	MeanSexRatio    *float64 `json:"mean_sex_ratio" csv:"mean_sex_ratio"`
	SexRatioSlope   *float64 `json:"sex_ratio_slope" csv:"sex_ratio_slope"`
	PopulationSlope *float64 `json:"population_slope" csv:"population_slope"`
	PopulationFirst *int64   `json:"population_first" csv:"population_first"`
	PopulationLast  *int64   `json:"population_last" csv:"population_last"`
}

// YearTotal sums the agglomerations of one census year. Each *N field counts
// the records that contributed to the matching sum.
type YearTotal struct {
	Year           int     `json:"year" csv:"year"`
	Agglomerations int     `json:"agglomerations" csv:"agglomerations"`
	Population     int64   `json:"population" csv:"population"`
	PopulationN    int     `json:"population_n" csv:"population_n"`
	PopMale        int64   `json:"pop_male" csv:"pop_male"`
	PopMaleN       int     `json:"pop_male_n" csv:"pop_male_n"`
	PopFemale      int64   `json:"pop_female" csv:"pop_female"`
	PopFemaleN     int     `json:"pop_female_n" csv:"pop_female_n"`
	Area           float64 `json:"area" csv:"area"`
	AreaN          int     `json:"area_n" csv:"area_n"`
}

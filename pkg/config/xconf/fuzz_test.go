package xconf

import "testing"

func FuzzParse(f *testing.F) {
	f.Add([]byte(testYAML), "yaml")
	f.Add([]byte(testJSON), "json")
	f.Add([]byte(""), "yaml")
	f.Add([]byte("rotate: [x"), "yaml")

	f.Fuzz(func(t *testing.T, data []byte, format string) {
		src, err := Parse(data, Format(format))
		if err != nil {
			return
		}
		// 解析成功后解码不应 panic
		var cfg fileConfig
		_ = src.Decode("", &cfg) //nolint:errcheck // 只关心是否 panic
		_ = src.Koanf().Keys()
	})
}
